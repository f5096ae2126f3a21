package utils

import (
	"regexp"
	"strings"
)

// MaxBranchNameByteLength bounds branch names so that refs/heads/<name> stays
// within git's 256 byte ref limit
const MaxBranchNameByteLength = 256 - len("refs/heads/")

var (
	// branchNameReplaceRegex matches characters that are not valid in branch names
	branchNameReplaceRegex = regexp.MustCompile(`[^-_/.a-zA-Z0-9]+`)
	// branchNameTrimRegex matches leading and trailing slashes and dots
	branchNameTrimRegex = regexp.MustCompile(`^[/.]+|[/.]+$`)
	hyphenRegex         = regexp.MustCompile(`-+`)
	slashRegex          = regexp.MustCompile(`/+`)
)

// SanitizeBranchName turns a stack name into a name git accepts under
// refs/heads/. It returns "" when nothing usable is left.
func SanitizeBranchName(name string) string {
	name = branchNameReplaceRegex.ReplaceAllString(name, "-")
	name = strings.ReplaceAll(name, "..", "-")
	name = slashRegex.ReplaceAllString(name, "/")
	name = strings.ReplaceAll(name, "/.", "/")
	name = hyphenRegex.ReplaceAllString(name, "-")
	name = strings.TrimSuffix(name, ".lock")
	name = branchNameTrimRegex.ReplaceAllString(name, "")
	name = strings.Trim(name, "-")

	if len(name) > MaxBranchNameByteLength {
		name = name[:MaxBranchNameByteLength]
		name = strings.TrimRight(name, "-/.")
	}
	return name
}
