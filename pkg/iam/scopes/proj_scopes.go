package scopes

import "github.com/Abraxas-365/hireflow/pkg/kernel"

// ============================================================================
// DOMAIN-SPECIFIC SCOPES - ATS (Applicant Tracking System)
// ============================================================================

const (
	// Job scopes
	ScopeJobsAll    = "jobs:*"
	ScopeJobsRead   = "jobs:read"
	ScopeJobsWrite  = "jobs:write"
	ScopeJobsDelete = "jobs:delete"
	ScopeJobsFreeze = "jobs:freeze" // Freeze, unfreeze, close and cancel

	// Candidate scopes
	ScopeCandidatesAll    = "candidates:*"
	ScopeCandidatesRead   = "candidates:read"
	ScopeCandidatesWrite  = "candidates:write"
	ScopeCandidatesDelete = "candidates:delete"

	ScopeTalentPoolRead = "talent_pool:read"
)

// DomainScopeCategories organizes domain-specific scopes
var DomainScopeCategories = map[string][]string{
	"Jobs": {
		ScopeJobsAll,
		ScopeJobsRead,
		ScopeJobsWrite,
		ScopeJobsDelete,
		ScopeJobsFreeze,
	},
	"Candidates": {
		ScopeCandidatesAll,
		ScopeCandidatesRead,
		ScopeCandidatesWrite,
		ScopeCandidatesDelete,
		ScopeTalentPoolRead,
	},
}

// DomainScopeDescriptions provides descriptions for domain scopes
var DomainScopeDescriptions = map[string]string{
	ScopeJobsAll:    "Full access to job management",
	ScopeJobsRead:   "View jobs",
	ScopeJobsWrite:  "Create and edit jobs",
	ScopeJobsDelete: "Delete jobs",
	ScopeJobsFreeze: "Freeze, close and cancel jobs",

	ScopeCandidatesAll:    "Full access to candidate management",
	ScopeCandidatesRead:   "View candidates",
	ScopeCandidatesWrite:  "Create candidates and move them through the funnel",
	ScopeCandidatesDelete: "Delete candidates",
	ScopeTalentPoolRead:   "Browse the talent pool",
}

// RoleScopeGroups is the scope template granted to each role
var RoleScopeGroups = map[kernel.Role][]string{
	kernel.RoleMaster: {
		ScopeAll,
	},
	kernel.RoleRecruiter: {
		ScopeJobsAll,
		ScopeCandidatesAll,
		ScopeTalentPoolRead,
		ScopeReportsAll,
		ScopeUsersRead,
	},
	kernel.RoleHRAssistant: {
		ScopeJobsRead,
		ScopeCandidatesRead,
		ScopeCandidatesWrite,
		ScopeTalentPoolRead,
		ScopeReportsView,
	},
}
