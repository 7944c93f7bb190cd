package answer

import (
	"regexp"
	"strings"
)

var (
	pageCitationRe = regexp.MustCompile(`(?i)\([^()]*\bp\.?\s*\d+[^()]*\)`)
	sourceLineRe   = regexp.MustCompile(`(?mi)^\s*sources?:.*$`)
	inlineSourceRe = regexp.MustCompile(`(?i)\s*sources?:.*`)
	blankLinesRe   = regexp.MustCompile(`\n{2,}`)
	multiSpaceRe   = regexp.MustCompile(`[ \t]{2,}`)
)

// Clean strips citation artifacts the model may echo back: page
// references like "(p. 12)", lines starting with "Source:", trailing
// inline "Source: ..." fragments, then collapses repeated blank lines
// and horizontal whitespace. If cleaning leaves nothing, the raw
// answer is returned unchanged so the user never sees a blank reply.
func Clean(raw string) string {
	out := pageCitationRe.ReplaceAllString(raw, "")
	out = sourceLineRe.ReplaceAllString(out, "")
	out = inlineSourceRe.ReplaceAllString(out, "")
	out = blankLinesRe.ReplaceAllString(out, "\n")
	out = multiSpaceRe.ReplaceAllString(out, " ")
	out = strings.TrimSpace(out)
	if out == "" {
		return raw
	}
	return out
}
