package domain

import (
	"path"
	"regexp"
	"strings"
)

func IsValidRepoName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, "/\\") {
		return false
	}
	return strings.TrimSpace(name) == name
}

func IsValidSparsePath(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" || strings.Contains(value, "\\") {
		return false
	}
	if path.IsAbs(value) {
		return false
	}
	for _, part := range strings.Split(value, "/") {
		if part == ".." {
			return false
		}
	}
	return path.Clean(value) != "."
}

var packageNamePattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)

var packageSeparators = regexp.MustCompile(`[-_.]+`)

func IsValidPackageName(name string) bool {
	return packageNamePattern.MatchString(name)
}

// NormalizePackageName applies the PEP 503 normalisation used by package
// indexes: lower case, runs of "-", "_" and "." collapse to "-".
func NormalizePackageName(name string) string {
	return packageSeparators.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}
