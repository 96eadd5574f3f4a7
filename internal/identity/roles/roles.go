// Package roles is the single point of truth for role comparison. Upstream
// sources spell roles inconsistently ("Super Admin", "super-admin",
// "SUPER_ADMIN"); every comparison must go through Normalize so they all
// compare equal.
package roles

import (
	"regexp"
	"strings"
)

// Canonical role tags used across the service.
const (
	SuperAdmin = "super_admin"
	Admin      = "admin"
	Accountant = "accountant"
	Teacher    = "teacher"
	Student    = "student"
	Parent     = "parent"
)

var separatorRuns = regexp.MustCompile(`[\s-]+`)

// Normalize canonicalizes a role value of unknown provenance: trim,
// lowercase, collapse any run of whitespace or hyphens into one underscore.
// Non-string input yields the empty string. Pure and idempotent.
func Normalize(input any) string {
	s, ok := input.(string)
	if !ok {
		return ""
	}
	s = strings.ToLower(strings.TrimSpace(s))
	return separatorRuns.ReplaceAllString(s, "_")
}

// NormalizeSet normalizes every entry of a role set, dropping empties.
func NormalizeSet(set []string) map[string]struct{} {
	out := make(map[string]struct{}, len(set))
	for _, r := range set {
		if n := Normalize(r); n != "" {
			out[n] = struct{}{}
		}
	}
	return out
}
