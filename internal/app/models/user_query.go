package models

// UserSort selects the ordering of a user listing.
type UserSort int

const (
	SortByName UserSort = iota
	SortByNewest
	SortByTotalPoints
	SortByLastYearPoints
	SortByConnectionCount
)

// UserQuery filters a user listing. Zero values do not filter.
type UserQuery struct {
	Roles       []Role
	Approved    *bool
	IsMainAdmin *bool
	// Search matches name, email, enrollment number or course, case-insensitively.
	Search string
	// Exact matches the name or enrollment number exactly, ignoring case.
	Exact       string
	Course      string
	Year        string
	Industry    string
	IDs         []int64
	ExcludeIDs  []int64
	MinTotal    *int
	HasLastYear bool
	SortBy      UserSort
	Limit       int
}

// Bool returns a pointer to b for optional query flags.
func Bool(b bool) *bool {
	return &b
}

// Int returns a pointer to i for optional query bounds.
func Int(i int) *int {
	return &i
}
