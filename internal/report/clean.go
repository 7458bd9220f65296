package report

import "regexp"

var (
	linkPattern    = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	headingPattern = regexp.MustCompile(`(?m)^## (.*)$`)
)

// CleanForChat rewrites the markdown report for chat consumers: inline links
// become link-presentation tokens and level-2 headings become emphasis.
// Applied once to the final accumulated text.
func CleanForChat(msg string) string {
	out := linkPattern.ReplaceAllString(msg, "<$2|$1>")
	return headingPattern.ReplaceAllString(out, "*$1*")
}
