package scopes

// ============================================================================
// COMMON SCOPES - Administración, usuarios y reportes
// ============================================================================

const (
	// Super scope - full access to everything
	ScopeAll = "*"

	// User management scopes
	ScopeUsersAll   = "users:*"
	ScopeUsersRead  = "users:read"
	ScopeUsersWrite = "users:write"

	// Reports scopes
	ScopeReportsAll    = "reports:*"
	ScopeReportsView   = "reports:view"
	ScopeReportsExport = "reports:export"
)

// CommonScopeCategories organizes common scopes by domain
var CommonScopeCategories = map[string][]string{
	"Administration": {
		ScopeAll,
	},
	"Users": {
		ScopeUsersAll,
		ScopeUsersRead,
		ScopeUsersWrite,
	},
	"Reports": {
		ScopeReportsAll,
		ScopeReportsView,
		ScopeReportsExport,
	},
}

// CommonScopeDescriptions provides human-readable descriptions
var CommonScopeDescriptions = map[string]string{
	ScopeAll: "Full access to all system resources",

	ScopeUsersAll:   "Full access to user management",
	ScopeUsersRead:  "View users",
	ScopeUsersWrite: "Create and edit users",

	ScopeReportsAll:    "Full access to reporting",
	ScopeReportsView:   "View the recruitment dashboard",
	ScopeReportsExport: "Download the dashboard as a spreadsheet",
}
