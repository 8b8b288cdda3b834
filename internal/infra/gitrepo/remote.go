package gitrepo

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

const originRemote = "origin"

func originURL(repo *git.Repository) (string, error) {
	cfg, err := repo.Config()
	if err != nil {
		return "", fmt.Errorf("read git config: %w", err)
	}
	remote, ok := cfg.Remotes[originRemote]
	if !ok || len(remote.URLs) == 0 {
		return "", nil
	}
	return remote.URLs[0], nil
}
