package admin

// Listing bounds
const (
	DefaultUserLimit    = 100
	MaxUserLimit        = 500
	DefaultSimilarLimit = 5
	MaxSimilarLimit     = 50
	DetailAnalysesLimit = 100
	DetailEventsLimit   = 50
)

// ListParams holds pagination query parameters
type ListParams struct {
	Limit  int
	Offset int
}

// Normalize clamps the parameters into the accepted range
func (p ListParams) Normalize() ListParams {
	if p.Limit <= 0 {
		p.Limit = DefaultUserLimit
	}
	if p.Limit > MaxUserLimit {
		p.Limit = MaxUserLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// ListResponse is the standard response wrapper for admin listings
type ListResponse struct {
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// PaginationMeta contains pagination information
type PaginationMeta struct {
	Count  int `json:"count"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
