package pagination

import (
	"math"

	"github.com/angelmondragon/hydrus-backend/pkg/types"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any listing can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize returns params with page >= 1 and a bounded limit.
func (p Params) Normalize() Params {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return Params{Page: page, Limit: NormalizeLimit(p.Limit)}
}

// Offset is the number of rows to skip for the (normalized) page.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Info builds the page descriptor returned alongside a listing.
func (p Params) Info(total int64) types.PageInfo {
	n := p.Normalize()
	return types.PageInfo{
		Page:       n.Page,
		Limit:      n.Limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(n.Limit))),
	}
}
