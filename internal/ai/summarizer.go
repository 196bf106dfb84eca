package ai

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/atlasworks/projectfeed/internal/reqctx"
	"google.golang.org/genai"
)

// TranscriptLine is one chat message prepared for summarization.
type TranscriptLine struct {
	Author string
	SentAt time.Time
	Body   string
}

type DigestClient struct {
	model string
}

func NewDigestClient() *DigestClient {
	model := os.Getenv("GEMINI_DIGEST_MODEL")
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &DigestClient{model: model}
}

// Summarize sends the transcript to Gemini and parses the digest back out.
func (c *DigestClient) Summarize(ctx context.Context, tone string, lines []TranscriptLine) (Digest, error) {
	rid := reqctx.RID(ctx)
	projectID := reqctx.ProjectID(ctx)
	start := time.Now()

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		log.Printf("[digest] rid=%s project=%d stage=client_init err=%v", rid, projectID, err)
		return Digest{}, err
	}

	parts := []*genai.Part{
		genai.NewPartFromText(BuildDigestPrompt(tone)),
		genai.NewPartFromText(renderTranscript(lines)),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	temp := float32(0)
	config := &genai.GenerateContentConfig{
		Temperature: &temp,
	}

	genStart := time.Now()
	log.Printf("[digest] rid=%s project=%d stage=gemini_start model=%s lines=%d", rid, projectID, c.model, len(lines))
	res, err := client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		log.Printf("[digest] rid=%s project=%d stage=gemini_fail model=%s err=%v", rid, projectID, c.model, err)
		return Digest{}, fmt.Errorf("gemini generate: %w", err)
	}
	genDur := time.Since(genStart)
	log.Printf("[digest] rid=%s project=%d stage=gemini_done model=%s genMs=%d", rid, projectID, c.model, genDur.Milliseconds())

	rawText := res.Text()
	digest, err := ParseDigest(rawText)
	if err != nil {
		text := strings.ReplaceAll(rawText, "\n", " ")
		if len(text) > 80 {
			text = text[:80]
		}
		log.Printf("[digest] rid=%s project=%d stage=parse_fail len=%d text=%q err=%v", rid, projectID, len(rawText), text, err)
		return Digest{}, err
	}
	log.Printf("[digest] rid=%s project=%d stage=parse_ok items=%d genMs=%d totalMs=%d", rid, projectID, len(digest.ActionItems), genDur.Milliseconds(), time.Since(start).Milliseconds())
	return digest, nil
}

func renderTranscript(lines []TranscriptLine) string {
	var b strings.Builder
	b.WriteString("Transcript:\n")
	for _, line := range lines {
		fmt.Fprintf(&b, "[%s] %s: %s\n", line.SentAt.Format("2006-01-02 15:04"), line.Author, line.Body)
	}
	return b.String()
}
