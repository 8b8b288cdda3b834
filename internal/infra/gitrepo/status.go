package gitrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/osvaldoandrade/envprov/internal/domain"
)

func (s *Store) LoadStatus(ctx context.Context, path string) (domain.RepoStatus, error) {
	if err := ctx.Err(); err != nil {
		return domain.RepoStatus{}, err
	}

	repo, err := git.PlainOpen(path)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return domain.RepoStatus{Path: path, Exists: true}, nil
		}
		return domain.RepoStatus{}, fmt.Errorf("open git repo: %w", err)
	}

	status := domain.RepoStatus{Path: path, Exists: true, IsRepo: true}

	ref, err := repo.Head()
	if err == nil {
		status.HasHead = true
		status.HeadHash = ref.Hash().String()
		if ref.Name().IsBranch() {
			status.Branch = ref.Name().Short()
		}
	} else if !errors.Is(err, plumbing.ErrReferenceNotFound) && !errors.Is(err, plumbing.ErrObjectNotFound) {
		return domain.RepoStatus{}, fmt.Errorf("read HEAD: %w", err)
	}

	remote, err := originURL(repo)
	if err != nil {
		return domain.RepoStatus{}, err
	}
	status.Remote = remote

	sparse, err := isSparse(repo)
	if err != nil {
		return domain.RepoStatus{}, err
	}
	status.Sparse = sparse

	return status, nil
}

// isSparse reports whether the checkout omits part of the tree, either via
// git's sparse-checkout setting or via skip-worktree index entries.
func isSparse(repo *git.Repository) (bool, error) {
	cfg, err := repo.Config()
	if err != nil {
		return false, fmt.Errorf("read git config: %w", err)
	}
	if cfg.Raw.Section("core").Option("sparseCheckout") == "true" {
		return true, nil
	}

	idx, err := repo.Storer.Index()
	if err != nil {
		return false, nil
	}
	for _, entry := range idx.Entries {
		if entry.SkipWorktree {
			return true, nil
		}
	}
	return false, nil
}
