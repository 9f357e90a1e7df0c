package gcp

import (
	"strings"

	"google.golang.org/api/option"
)

// Credentials selects how Google API clients authenticate. Inline JSON wins
// over a file path; neither means application default credentials.
type Credentials struct {
	JSON string
	File string
}

// Source names the credential source for startup logs.
func (c Credentials) Source() string {
	switch {
	case strings.TrimSpace(c.JSON) != "":
		return "inline_json"
	case strings.HasPrefix(strings.TrimSpace(c.File), "{"):
		return "inline_json"
	case strings.TrimSpace(c.File) != "":
		return "file"
	default:
		return "application_default"
	}
}

// ClientOptions turns the credentials plus scopes into client options.
func (c Credentials) ClientOptions(scopes ...string) []option.ClientOption {
	var opts []option.ClientOption
	inline := strings.TrimSpace(c.JSON)
	file := strings.TrimSpace(c.File)
	if inline == "" && strings.HasPrefix(file, "{") {
		inline, file = file, ""
	}
	switch {
	case inline != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(inline)))
	case file != "":
		opts = append(opts, option.WithCredentialsFile(file))
	}
	if len(scopes) > 0 {
		opts = append(opts, option.WithScopes(scopes...))
	}
	return opts
}
