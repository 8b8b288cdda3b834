package domain

type RepoStatus struct {
	Name     string
	Path     string
	Exists   bool
	IsRepo   bool
	HasHead  bool
	HeadHash string
	Branch   string
	Remote   string
	Sparse   bool
}

type EnvironmentStatus struct {
	Root           string
	Exists         bool
	Interpreter    string
	HasInterpreter bool
}

type ProvisionStatus struct {
	ManifestPath   string
	ManifestDigest string
	Repositories   []RepoStatus
	Environment    EnvironmentStatus
	LastRun        *Report
	Drift          bool
}

// Complete reports whether every repository and the environment exist.
func (s ProvisionStatus) Complete() bool {
	if !s.Environment.Exists {
		return false
	}
	for _, repo := range s.Repositories {
		if !repo.Exists {
			return false
		}
	}
	return true
}
