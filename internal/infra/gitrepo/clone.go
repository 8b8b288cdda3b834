package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/osvaldoandrade/envprov/internal/app/provision"
	"github.com/osvaldoandrade/envprov/internal/domain"
)

func (s *Store) Clone(ctx context.Context, req provision.CloneRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := ensureClonePath(req.Path); err != nil {
		return err
	}

	auth, err := credentialsFromEnv().authFor(req.URL)
	if err != nil {
		return err
	}

	opts := &git.CloneOptions{
		URL:          req.URL,
		Auth:         auth,
		SingleBranch: true,
		Tags:         git.NoTags,
		NoCheckout:   len(req.SparsePaths) > 0,
	}
	if !isLocal(req.URL) {
		opts.Depth = req.Depth
	}
	if ref := strings.TrimSpace(req.Ref); ref != "" {
		opts.ReferenceName = referenceName(ref)
	}

	s.logger.Debug("git clone", "url", req.URL, "path", req.Path, "depth", opts.Depth, "ref", req.Ref)
	repo, err := git.PlainCloneContext(ctx, req.Path, false, opts)
	if err != nil {
		discard(req.Path)
		return fmt.Errorf("clone git repo: %w", err)
	}

	if len(req.SparsePaths) == 0 {
		return nil
	}
	if err := checkoutSparse(repo, req.SparsePaths); err != nil {
		discard(req.Path)
		return fmt.Errorf("sparse checkout: %w: %w", domain.ErrSparseUnsupported, err)
	}
	return nil
}

func checkoutSparse(repo *git.Repository, paths []string) error {
	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("read HEAD: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	checkout := &git.CheckoutOptions{
		SparseCheckoutDirectories: paths,
		Force:                     true,
	}
	if head.Name().IsBranch() {
		checkout.Branch = head.Name()
	} else {
		checkout.Hash = head.Hash()
	}
	return worktree.Checkout(checkout)
}

func ensureClonePath(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return fmt.Errorf("clone path already exists: %w", os.ErrExist)
		}
		return fmt.Errorf("clone path is a file: %w", domain.ErrNotDirectory)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("check clone path: %w", err)
	}

	parent := filepath.Dir(path)
	if parent != "" && parent != "." {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return fmt.Errorf("create parent directory: %w", err)
		}
	}

	return nil
}

// discard removes a partial clone so the next run starts over instead of
// treating the directory as provisioned.
func discard(path string) {
	_ = os.RemoveAll(path)
}

func referenceName(ref string) plumbing.ReferenceName {
	if strings.HasPrefix(ref, "refs/") {
		return plumbing.ReferenceName(ref)
	}
	return plumbing.NewBranchReferenceName(ref)
}

// isLocal reports whether url points at the local filesystem. The file
// transport cannot serve shallow fetches.
func isLocal(url string) bool {
	ep, err := transport.NewEndpoint(url)
	if err != nil {
		return false
	}
	return ep.Protocol == "file"
}
