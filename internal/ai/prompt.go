package ai

import "strings"

const baseDigestPrompt = `You summarize a project chat transcript for a teammate catching up.

Hard rules (must follow):

* Use only information present in the transcript. Do not invent names, dates, or decisions.
* Write in the transcript's language.
* Output format: one line starting with "SUMMARY: ", then zero or more lines starting with "- " for action items.
* No other text, headings, or markdown.`

var tonePrompts = map[string]string{
	"brief": `Tone target (brief):

* SUMMARY must be a single sentence.

* Include at most three action items, only explicit asks or commitments.`,
	"detailed": `Tone target (detailed):

* SUMMARY may be two or three sentences covering decisions, blockers, and open questions.

* List every concrete action item with its owner when named.`,
	"actions": `Tone target (actions):

* SUMMARY is one short sentence of overall context.

* Focus on action items: list every task, request, or follow-up mentioned, one per line.`,
}

// BuildDigestPrompt concatenates the base and tone prompts. Unknown tones
// fall back to brief.
func BuildDigestPrompt(tone string) string {
	tone = strings.TrimSpace(strings.ToLower(tone))
	style, ok := tonePrompts[tone]
	if !ok {
		style = tonePrompts["brief"]
	}
	return strings.Join([]string{baseDigestPrompt, style}, "\n\n")
}
