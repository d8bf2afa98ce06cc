package constants

// Pagination Query Parameters
const (
	QueryParamPage    = "page"
	QueryParamLimit   = "limit"
	QueryParamPerPage = "per_page"
)

// Default Pagination Values (as strings for query parsing)
const (
	DefaultPage  = "1"
	DefaultLimit = "10"
)

// Pagination Limits (as integers for validation)
const (
	MinPage  = 1
	MinLimit = 1
	MaxLimit = 100
)

// DashboardRecentUsers is how many newest accounts the admin dashboard lists.
const DashboardRecentUsers = 5
