package bulk

import (
	"regexp"
	"strings"
)

var (
	separators    = regexp.MustCompile(`[\s,]+`)
	profilePrefix = regexp.MustCompile(`(?i)^https?://(www\.)?github\.com/`)
)

// ParseIdentities extracts identities from free text. Entries may be
// separated by whitespace or commas and may be profile URLs or @handles.
// The first occurrence of each identity is kept, compared case-insensitively.
func ParseIdentities(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, tok := range separators.Split(text, -1) {
		tok = profilePrefix.ReplaceAllString(strings.TrimSpace(tok), "")
		tok = strings.TrimPrefix(tok, "@")
		tok = strings.Trim(tok, "/")
		if i := strings.IndexByte(tok, '/'); i >= 0 {
			tok = tok[:i]
		}
		if tok == "" {
			continue
		}
		key := strings.ToLower(tok)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// Dedupe trims and de-duplicates an explicit identity list, keeping order.
func Dedupe(identities []string) []string {
	return ParseIdentities(strings.Join(identities, " "))
}
