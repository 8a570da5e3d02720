package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"camelCase", "parseUserRequest", []string{"parse", "user", "request", "parseuserrequest"}},
		{"PascalCase", "HTTPClient", []string{"http", "client", "httpclient"}},
		{"acronymFollowedByWord", "HTMLParser", []string{"html", "parser", "htmlparser"}},
		{"snake_case", "handle_user_login", []string{"handle", "user", "login", "handleuserlogin"}},
		{"kebab-case", "user-profile-view", []string{"user", "profile", "view", "userprofileview"}},
		{"digitsDoNotSplit", "v2Handler", []string{"v2", "handler", "v2handler"}},
		{"singleWord", "widget", []string{"widget"}},
		{"allUpperAcronym", "ID", []string{"id"}},
		{"mixedSeparatorsAndCase", "parse_HTTPRequest-v2", []string{"parse", "http", "request", "v2", "parsehttprequestv2"}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, c.want, Tokenize(c.in))
		})
	}
}

func TestTokenize_NoDuplicates(t *testing.T) {
	t.Parallel()
	got := Tokenize("getGetter")
	seen := make(map[string]bool)
	for _, tok := range got {
		assert.False(t, seen[tok], "token %q repeated", tok)
		seen[tok] = true
	}
}

func TestTokenString_JoinsWithSpaces(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "parse user request parseuserrequest", TokenString("parseUserRequest"))
}

func TestTokenize_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize("___"))
}
