package config

// Field and paging limits enforced at the service layer.
const (
	MaxDisplayNameLength = 200
	MaxItemNameLength    = 200
	MaxDetailTextLength  = 500
	MaxRemarkTextLength  = 2000

	DefaultPageSize = 20
	MaxPageSize     = 100
)
