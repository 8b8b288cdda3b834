package pyenv

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var errUnsupportedSpecifier = errors.New("unsupported version specifier")

// specifierOperators is ordered so longer operators match first.
var specifierOperators = []string{"===", "~=", "==", "!=", ">=", "<=", ">", "<"}

// Satisfies reports whether the installed version meets constraint, a
// comma-separated specifier list such as ">=2.31,<3" or a bare version. A
// constraint that cannot be evaluated counts as unmet, so the package is
// handed back to pip.
func (m *Manager) Satisfies(installed, constraint string) bool {
	return satisfies(installed, constraint)
}

func satisfies(installed, constraint string) bool {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" {
		return true
	}
	installed = strings.TrimSpace(installed)
	if installed == "" {
		return false
	}
	if strings.HasPrefix(constraint, "===") {
		return strings.TrimSpace(constraint[3:]) == installed
	}

	version, err := semver.NewVersion(installed)
	if err != nil {
		return false
	}
	for _, clause := range strings.Split(constraint, ",") {
		check, err := translateClause(clause)
		if err != nil {
			return false
		}
		if !check.Check(version) {
			return false
		}
	}
	return true
}

// translateClause rewrites one pip specifier into semver constraint syntax.
// "==2.*" becomes "2.x" and "~=1.4.2" becomes ">= 1.4.2, < 1.5".
func translateClause(clause string) (*semver.Constraints, error) {
	clause = strings.TrimSpace(clause)
	op, version := splitOperator(clause)
	if version == "" {
		return nil, fmt.Errorf("%w: %q", errUnsupportedSpecifier, clause)
	}

	var expr string
	switch op {
	case "", "==":
		expr = "=" + wildcard(version)
	case "!=":
		expr = "!=" + wildcard(version)
	case ">=", "<=", ">", "<":
		if strings.Contains(version, "*") {
			return nil, fmt.Errorf("%w: %q", errUnsupportedSpecifier, clause)
		}
		expr = op + padRelease(version)
	case "~=":
		upper, err := compatibleUpper(version)
		if err != nil {
			return nil, err
		}
		expr = ">= " + padRelease(version) + ", < " + padRelease(upper)
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedSpecifier, clause)
	}
	return semver.NewConstraint(expr)
}

func splitOperator(clause string) (string, string) {
	for _, op := range specifierOperators {
		if strings.HasPrefix(clause, op) {
			return op, strings.TrimSpace(clause[len(op):])
		}
	}
	return "", clause
}

func wildcard(version string) string {
	if strings.HasSuffix(version, ".*") {
		return strings.TrimSuffix(version, ".*") + ".x"
	}
	return padRelease(version)
}

// padRelease zero-fills a short release so "2.31" compares as exactly
// 2.31.0 rather than as the 2.31.x range.
func padRelease(version string) string {
	release, suffix := version, ""
	if i := strings.IndexAny(version, "-+"); i >= 0 {
		release, suffix = version[:i], version[i:]
	}
	for strings.Count(release, ".") < 2 {
		release += ".0"
	}
	return release + suffix
}

// compatibleUpper drops the last release segment and bumps the one before:
// 2.2 gives 3, 1.4.5 gives 1.5.
func compatibleUpper(version string) (string, error) {
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: ~=%s needs two release segments", errUnsupportedSpecifier, version)
	}
	parts = parts[:len(parts)-1]
	last, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return "", fmt.Errorf("%w: ~=%s", errUnsupportedSpecifier, version)
	}
	parts[len(parts)-1] = strconv.Itoa(last + 1)
	return strings.Join(parts, "."), nil
}
