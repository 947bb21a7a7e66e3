package shared

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 200
)

// ListFilters represents standard list page filters.
type ListFilters struct {
	Page     int
	Limit    int
	Search   string
	IsActive *bool
}

// Normalize clamps pagination to sane bounds.
func (f *ListFilters) Normalize() {
	if f.Page <= 0 {
		f.Page = DefaultPage
	}
	if f.Limit <= 0 || f.Limit > MaxLimit {
		f.Limit = DefaultLimit
	}
}

// Offset returns the SQL offset for the current page.
func (f ListFilters) Offset() int {
	return (f.Page - 1) * f.Limit
}
