// Package command parses bot mention commands out of GitHub issue comment
// text. Parsing is pure: the same comment body always yields the same
// outcome, and no I/O happens here.
package command

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Outcome classifies the result of parsing a comment body.
type Outcome int

const (
	// OutcomeNotMentioned means the comment does not address the bot at all.
	// The bot stays silent for these.
	OutcomeNotMentioned Outcome = iota
	// OutcomeMalformed means the bot was addressed but the arguments do not
	// satisfy the command grammar.
	OutcomeMalformed
	// OutcomeCommand means a complete create-pr command was parsed.
	OutcomeCommand
)

// String returns a human-readable name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeNotMentioned:
		return "not_mentioned"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeCommand:
		return "command"
	default:
		return "unknown"
	}
}

// CreatePR holds the arguments of a parsed create-pr command.
type CreatePR struct {
	SourceBranch string
	TargetBranch string
	Title        string
}

// Parse scans commentBody for an "@<mentionName> create-pr" directive and
// extracts its arguments.
//
// The mention phrase is matched case-insensitively and may appear anywhere
// in the body. The argument grammar is positional: the first two
// whitespace-delimited tokens after the phrase are the source and target
// branches, and the remainder of that line is the title. A title wrapped in
// double quotes has the quotes stripped; an unquoted trailing phrase is
// taken verbatim, spaces included. Embedded quote characters inside a quoted
// title are not unescaped.
func Parse(commentBody, mentionName string) (CreatePR, Outcome) {
	loc := mentionPattern(mentionName).FindStringIndex(commentBody)
	if loc == nil {
		return CreatePR{}, OutcomeNotMentioned
	}

	tail := commentBody[loc[1]:]

	// The command token must end at a word boundary: "create-pr-ish" is not
	// a mention of this command.
	if r, _ := utf8.DecodeRuneInString(tail); tail != "" && !unicode.IsSpace(r) {
		return CreatePR{}, OutcomeNotMentioned
	}

	// Arguments live on the mention's own line. Later lines are prose.
	if i := strings.IndexAny(tail, "\r\n"); i >= 0 {
		tail = tail[:i]
	}

	source, rest := cutToken(tail)
	target, rest := cutToken(rest)
	if source == "" || target == "" {
		return CreatePR{}, OutcomeMalformed
	}

	title := strings.TrimSpace(rest)
	if len(title) >= 2 && strings.HasPrefix(title, `"`) && strings.HasSuffix(title, `"`) {
		title = strings.TrimSpace(title[1 : len(title)-1])
	}
	if title == "" {
		return CreatePR{}, OutcomeMalformed
	}

	return CreatePR{
		SourceBranch: source,
		TargetBranch: target,
		Title:        title,
	}, OutcomeCommand
}

// mentionPattern builds the case-insensitive "@<name> create-pr" matcher.
func mentionPattern(mentionName string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)@` + regexp.QuoteMeta(mentionName) + `\s+create-pr`)
}

// cutToken splits off the first whitespace-delimited token of s.
func cutToken(s string) (token, rest string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}
