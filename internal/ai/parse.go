package ai

import (
	"errors"
	"fmt"
	"strings"
)

var ErrParseFailed = errors.New("parse_failed")

// Digest is the parsed model output: a short summary plus any action items
// the model pulled out of the conversation.
type Digest struct {
	Summary     string
	ActionItems []string
}

// ParseDigest extracts the digest from model output. The strict format is a
// "SUMMARY:" line followed by "- " action item lines. As a fallback the first
// non-empty line becomes the summary and any remaining "- " lines become
// action items.
func ParseDigest(text string) (Digest, error) {
	var d Digest
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "SUMMARY:"); ok {
			d.Summary = strings.TrimSpace(rest)
			continue
		}
		if rest, ok := strings.CutPrefix(line, "- "); ok {
			if item := strings.TrimSpace(rest); item != "" {
				d.ActionItems = append(d.ActionItems, item)
			}
			continue
		}
		if d.Summary == "" {
			d.Summary = line
		}
	}
	if d.Summary == "" {
		return Digest{}, fmt.Errorf("%w: no summary found", ErrParseFailed)
	}
	return d, nil
}
