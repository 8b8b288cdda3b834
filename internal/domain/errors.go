package domain

import "errors"

var (
	ErrRepoNameRequired    = errors.New("repository name is required")
	ErrInvalidRepoName     = errors.New("invalid repository name")
	ErrRepoURLRequired     = errors.New("repository url is required")
	ErrDuplicateRepo       = errors.New("duplicate repository name")
	ErrSparsePathsRequired = errors.New("sparse repository requires at least one path")
	ErrInvalidSparsePath   = errors.New("invalid sparse path")
	ErrPackageNameRequired = errors.New("package name is required")
	ErrInvalidPackageName  = errors.New("invalid package name")
	ErrDuplicatePackage    = errors.New("duplicate package name")
	ErrEnvPathRequired     = errors.New("environment path is required")
	ErrInvalidPolicy       = errors.New("invalid policy")
	ErrInvalidGitBackend   = errors.New("invalid git backend")
	ErrUnsupportedVersion  = errors.New("unsupported manifest version")
	ErrNotDirectory        = errors.New("path exists and is not a directory")
	ErrRequirementsMissing = errors.New("requirements file not found")
)

// Step failures. ProvisionError matches these with errors.Is.
var (
	ErrCloneFailed       = errors.New("clone failed")
	ErrEnvironmentFailed = errors.New("environment creation failed")
	ErrInstallFailed     = errors.New("package install failed")
	ErrVerifyFailed      = errors.New("verification failed")
	ErrToolMissing       = errors.New("required tool not found")
	ErrSparseUnsupported = errors.New("sparse checkout unsupported")
)
