package gitrepo

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// tokenVars are consulted in order; the first non-empty one wins.
var tokenVars = []string{"ENVPROV_GIT_TOKEN", "GITHUB_TOKEN", "GH_TOKEN"}

const (
	userVar   = "ENVPROV_GIT_USERNAME"
	tokenUser = "x-access-token"
)

// credentials are offered to HTTPS remotes that carry no user of their own.
type credentials struct {
	user  string
	token string
}

func credentialsFromEnv() credentials {
	c := credentials{user: strings.TrimSpace(os.Getenv(userVar))}
	if c.user == "" {
		c.user = tokenUser
	}
	for _, name := range tokenVars {
		if token := strings.TrimSpace(os.Getenv(name)); token != "" {
			c.token = token
			break
		}
	}
	return c
}

// authFor returns the auth used to clone url, or nil to let go-git fall
// back to anonymous access. SSH remotes and local paths never get the token.
func (c credentials) authFor(url string) (transport.AuthMethod, error) {
	url = strings.TrimSpace(url)
	if url == "" || c.token == "" {
		return nil, nil
	}
	ep, err := transport.NewEndpoint(url)
	if err != nil {
		return nil, fmt.Errorf("parse remote URL: %w", err)
	}
	if ep.Protocol != "http" && ep.Protocol != "https" {
		return nil, nil
	}
	if ep.User != "" {
		return nil, nil
	}
	return &http.BasicAuth{Username: c.user, Password: c.token}, nil
}
