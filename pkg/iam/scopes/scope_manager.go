package scopes

import (
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

// ScopeCategories combines common and domain-specific categories
var ScopeCategories map[string][]string

// ScopeDescriptions combines common and domain-specific descriptions
var ScopeDescriptions map[string]string

func init() {
	ScopeCategories = make(map[string][]string)
	maps.Copy(ScopeCategories, CommonScopeCategories)
	maps.Copy(ScopeCategories, DomainScopeCategories)

	ScopeDescriptions = make(map[string]string)
	maps.Copy(ScopeDescriptions, CommonScopeDescriptions)
	maps.Copy(ScopeDescriptions, DomainScopeDescriptions)
}

// ScopeInfo is a scope with its human-readable description
type ScopeInfo struct {
	Scope       string `json:"scope"`
	Description string `json:"description"`
}

// ForRole returns a copy of the scope template of a role; unknown roles get none.
func ForRole(role kernel.Role) []string {
	return slices.Clone(RoleScopeGroups[role])
}

// GetScopeDescription returns the description for a given scope
func GetScopeDescription(scope string) string {
	if desc, exists := ScopeDescriptions[scope]; exists {
		return desc
	}
	return "No description available"
}

// GetAllScopes returns all defined scopes, sorted
func GetAllScopes() []string {
	allScopes := []string{}
	for _, scopes := range ScopeCategories {
		allScopes = append(allScopes, scopes...)
	}
	sort.Strings(allScopes)
	return allScopes
}

// ValidateScope checks if a scope is valid
func ValidateScope(scope string) bool {
	for _, scopes := range ScopeCategories {
		if slices.Contains(scopes, scope) {
			return true
		}
	}
	return false
}

// ExpandWildcardScope expands a wildcard scope to all matching scopes
// e.g., "jobs:*" -> ["jobs:delete", "jobs:freeze", "jobs:read", "jobs:write"]
func ExpandWildcardScope(wildcardScope string) []string {
	if wildcardScope == ScopeAll {
		return GetAllScopes()
	}

	if !strings.HasSuffix(wildcardScope, ":*") {
		return []string{wildcardScope}
	}

	prefix := strings.TrimSuffix(wildcardScope, ":*")
	expanded := []string{}

	for _, scope := range GetAllScopes() {
		if strings.HasPrefix(scope, prefix+":") && scope != wildcardScope {
			expanded = append(expanded, scope)
		}
	}

	return expanded
}

// Catalog describes every defined scope, wildcards included.
func Catalog() []ScopeInfo {
	all := GetAllScopes()
	out := make([]ScopeInfo, 0, len(all))
	for _, scope := range all {
		out = append(out, ScopeInfo{Scope: scope, Description: GetScopeDescription(scope)})
	}
	return out
}

// Describe expands the wildcards in granted and describes each concrete scope once, sorted.
func Describe(granted []string) []ScopeInfo {
	seen := make(map[string]struct{})
	out := []ScopeInfo{}
	for _, g := range granted {
		for _, scope := range ExpandWildcardScope(g) {
			if isWildcard(scope) {
				continue
			}
			if _, dup := seen[scope]; dup {
				continue
			}
			seen[scope] = struct{}{}
			out = append(out, ScopeInfo{Scope: scope, Description: GetScopeDescription(scope)})
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Scope < out[k].Scope })
	return out
}

func isWildcard(scope string) bool {
	return scope == ScopeAll || strings.HasSuffix(scope, ":*")
}
