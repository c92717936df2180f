package tabbycat

import (
	"net/http"
	"strings"
)

// DefaultAuthScheme is the scheme Tabbycat expects in the Authorization header.
const DefaultAuthScheme = "Token"

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request)
}

// TokenAuth sends "Authorization: <Scheme> <Key>".
type TokenAuth struct {
	Scheme string
	Key    string
}

// Apply implements the Authenticator interface for TokenAuth.
func (a TokenAuth) Apply(req *http.Request) {
	scheme := strings.TrimSpace(a.Scheme)
	if scheme == "" {
		scheme = DefaultAuthScheme
	}
	req.Header.Set("Authorization", scheme+" "+a.Key)
}
