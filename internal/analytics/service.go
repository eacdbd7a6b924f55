package analytics

import (
	"context"
	"time"
)

// Service coordinates aggregation queries, derived-metric computation and
// cursor paging. Every operation is a pure function of its filter evaluated
// against a snapshot read; there is no shared mutable state between requests.
type Service struct {
	repo  Repository
	cache *Cache
	loc   *time.Location
}

// NewService wires the aggregation repository, the cache helper and the
// business time zone.
func NewService(repo Repository, cache *Cache, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, cache: cache, loc: loc}
}

// Location exposes the business time zone for collaborators that bucket
// timestamps client-side.
func (s *Service) Location() *time.Location {
	return s.loc
}

// ActiveStoreIDs lists stores with recent completed orders, for cache warmup
// and scheduled reporting.
func (s *Service) ActiveStoreIDs(ctx context.Context) ([]int64, error) {
	return s.repo.ActiveStoreIDs(ctx)
}

// ListFilter scopes one paginated listing request. Start and End are
// inclusive calendar dates; the service converts them to a half-open window.
type ListFilter struct {
	StoreID int64
	Start   time.Time
	End     time.Time
	ViewBy  ViewBy
	Size    int
	Cursor  string
}

func (f ListFilter) viewBy() ViewBy {
	if f.ViewBy == ViewByMonth {
		return ViewByMonth
	}
	return ViewByDay
}

func normalizeSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}
