package nlu

import "regexp"

// Credentials is the at-most-one username/password pair recovered from raw
// text. Extraction is best-effort, first-match-per-field, with no strength
// validation.
type Credentials struct {
	User     string
	Password string
}

func (c Credentials) Empty() bool {
	return c.User == "" && c.Password == ""
}

// Credential label patterns are kept apart from the general rule chain on
// purpose: their results may only ever be merged into the source options
// mapping, which keeps the credential surface narrow and auditable.
var (
	userRules = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:用户名|username|user|账号)\s*(?:=|:|：|is|为|是)\s*([^\s,;，。]+)`),
		regexp.MustCompile(`(?i)(?:user|username)\s+([^\s,;，。]+)`),
	}
	passwordRules = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:密码|password|pwd|口令)\s*(?:=|:|：|is|为|是)\s*([^\s,;，。]+)`),
		regexp.MustCompile(`(?i)(?:password|pwd)\s+([^\s,;，。]+)`),
	}
)

// ExtractCredentials pulls inline credentials out of the text. Bilingual
// labels with or without separators are accepted; absence is not an error.
func ExtractCredentials(text string) Credentials {
	if text == "" {
		return Credentials{}
	}
	return Credentials{
		User:     firstMatch(userRules, text),
		Password: firstMatch(passwordRules, text),
	}
}
