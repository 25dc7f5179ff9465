package markup

import (
	"regexp"
	"strings"

	"github.com/aeokiss/github-bitrix24-bridge/domain/identity"
)

// masks is the ordered substitution table converting lightweight
// markdown to Bitrix24 BBCode. It is a literal character comparison,
// not a markdown grammar, so the order matters: headings before
// emphasis before lists, and the reserved characters last so they
// cannot corrupt replacements made by earlier entries. USER/URL tags
// are injected only after this table has run.
var masks = [...][2]string{
	{"##### ", ""}, // h5
	{"#### ", ""},  // h4
	{"### ", ""},   // h3
	{"## ", ""},    // h2
	{"# ", ""},     // h1
	{"***", ""},    // thematic break
	{"**", ""},     // bold
	{"* ", "● "},   // unordered list
	{"- [ ] ", "- □ "}, // unchecked checkbox
	{"*", ""},      // italic
	{"> ", "| "},   // blockquote
	{"[", "［"},
	{"]", "］"},
	{"#", "＃"},
}

// divider fences message bodies; both sides of a wrapped body use this
// exact line.
const divider = "------------------------------------------------------"

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_\-]+)`)

// ScanMentions extracts the usernames referenced as @name tokens, in
// order of appearance. Duplicates are preserved so the result stays
// position-correlated with a same-order Resolve call. No mentions
// yields nil, which callers treat as "skip resolution".
func ScanMentions(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	logins := make([]string, 0, len(matches))
	for _, m := range matches {
		logins = append(logins, m[1])
	}
	return logins
}

// ToBBCode applies the full mask table, reserved characters included.
func ToBBCode(md string) string {
	out := md
	for _, m := range masks {
		out = strings.ReplaceAll(out, m[0], m[1])
	}
	return out
}

// EscapeReserved replaces the three characters reserved by BBCode with
// full-width lookalikes. Running it on already-escaped text is a no-op.
func EscapeReserved(s string) string {
	s = strings.ReplaceAll(s, "[", "［")
	s = strings.ReplaceAll(s, "]", "］")
	s = strings.ReplaceAll(s, "#", "＃")
	return s
}

// SubstituteMentions replaces every literal @login occurrence with the
// USER tag of its resolved identity. Unresolved identities are skipped,
// leaving the plain @login text in place.
func SubstituteMentions(text string, ids []identity.Identity) string {
	for _, id := range ids {
		if !id.Resolved() {
			continue
		}
		text = strings.ReplaceAll(text, "@"+id.Login, id.Mention())
	}
	return text
}

// WrapDivider trims the body and fences it between two identical
// divider lines. Wrapping must be applied exactly once per body.
func WrapDivider(body string) string {
	return divider + "\n" + strings.TrimSpace(body) + "\n" + divider
}

// RenderBody converts a markdown body to a wrapped BBCode block: mask
// substitution, mention rewriting against the mapping, divider fencing.
// The returned identities are the resolved mentions in first-occurrence
// order, for the caller to turn into notification targets.
func RenderBody(md string, m identity.Mapping) (string, []identity.Identity) {
	body := ToBBCode(md)
	logins := ScanMentions(body)
	if len(logins) == 0 {
		return WrapDivider(body), nil
	}
	ids := identity.Resolve(m, logins)
	return WrapDivider(SubstituteMentions(body, ids)), ids
}

// QuoteComment wraps a comment body as a quoted block with mentions
// rewritten. Comment bodies keep their markdown as-is; only mentions
// are substituted.
func QuoteComment(body string, m identity.Mapping) (string, []identity.Identity) {
	logins := ScanMentions(body)
	if len(logins) == 0 {
		return WrapDivider(body), nil
	}
	ids := identity.Resolve(m, logins)
	return WrapDivider(SubstituteMentions(body, ids)), ids
}
