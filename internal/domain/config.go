package domain

import (
	"fmt"
	"strings"
)

type Policy string

const (
	PolicyStrict  Policy = "strict"
	PolicyLenient Policy = "lenient"
)

const DefaultPolicy = PolicyLenient

func (p Policy) IsValid() bool {
	return p == PolicyStrict || p == PolicyLenient
}

func ParsePolicy(value string) (Policy, error) {
	parsed := Policy(strings.ToLower(strings.TrimSpace(value)))
	if parsed == "" {
		return "", fmt.Errorf("policy is required: %w", ErrInvalidPolicy)
	}
	if !parsed.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidPolicy, value)
	}
	return parsed, nil
}

func NormalizePolicy(p Policy) Policy {
	if p.IsValid() {
		return p
	}
	return DefaultPolicy
}

// Tolerates reports whether a failure of the given step kind lets the run
// continue. Environment and install failures are fatal under every policy;
// verification failures never are.
func (p Policy) Tolerates(kind StepKind) bool {
	switch kind {
	case StepVerifyImport, StepVerifyCommand:
		return true
	case StepClone:
		return NormalizePolicy(p) == PolicyLenient
	default:
		return false
	}
}

type GitBackend string

const (
	GitBackendNative GitBackend = "native"
	GitBackendSystem GitBackend = "system"
)

const DefaultGitBackend = GitBackendNative

func (b GitBackend) IsValid() bool {
	return b == GitBackendNative || b == GitBackendSystem
}

func ParseGitBackend(value string) (GitBackend, error) {
	parsed := GitBackend(strings.ToLower(strings.TrimSpace(value)))
	if parsed == "" {
		return DefaultGitBackend, nil
	}
	if !parsed.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidGitBackend, value)
	}
	return parsed, nil
}
