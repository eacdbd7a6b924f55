package analytics

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SalesQuery scopes one paginated day/month sales scan. A nil After serves
// the first page. Limit already includes the extra look-ahead row.
type SalesQuery struct {
	StoreID int64
	Window  Window
	ViewBy  ViewBy
	After   *LabelCursor
	Limit   int
}

// MenuQuery scopes one paginated (label, menu) scan.
type MenuQuery struct {
	StoreID int64
	Window  Window
	ViewBy  ViewBy
	After   *EntityCursor
	Limit   int
}

// MaterialQuery scopes one paginated (label, material) scan.
type MaterialQuery struct {
	StoreID int64
	Window  Window
	ViewBy  ViewBy
	After   *EntityCursor
	Limit   int
}

// TimebandQuery scopes one paginated (label, weekday, hour) scan. FullDay
// bypasses the business-hours filter.
type TimebandQuery struct {
	StoreID int64
	Window  Window
	ViewBy  ViewBy
	FullDay bool
	After   *TimebandCursor
	Limit   int
}

// OrderQuery scopes one raw completed-order listing page.
type OrderQuery struct {
	StoreID int64
	Window  Window
	After   *RowCursor
	Limit   int
}

// Repository is the aggregation query engine. Every method is a read-only
// snapshot scan restricted to COMPLETED orders for one store; an unknown
// store simply yields empty results. Rows come back pre-sorted by the
// report's canonical key with the cursor's strictly-after predicate already
// applied, so the service only trims and encodes.
type Repository interface {
	SalesSummary(ctx context.Context, storeID int64, win Window) (SalesTotals, error)
	SalesByPeriod(ctx context.Context, q SalesQuery) ([]SalesRow, error)
	MenuSales(ctx context.Context, q MenuQuery) ([]MenuSalesRow, error)
	MenuTotals(ctx context.Context, storeID int64, win Window) ([]MenuTotalRow, error)
	MaterialCosts(ctx context.Context, q MaterialQuery) ([]MaterialCostRow, error)
	MaterialCostTotal(ctx context.Context, storeID int64, win Window) (int64, error)
	TimebandSales(ctx context.Context, q TimebandQuery) ([]TimebandRow, error)
	CompletedOrders(ctx context.Context, q OrderQuery) ([]OrderRow, error)
	ActiveStoreIDs(ctx context.Context) ([]int64, error)
}

// PGRepository implements Repository against PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
	tz   string
}

// NewRepository constructs the PostgreSQL aggregation engine. tz names the
// business time zone used for bucketing timestamps into day and month labels.
func NewRepository(pool *pgxpool.Pool, tz string) *PGRepository {
	if tz == "" {
		tz = "UTC"
	}
	return &PGRepository{pool: pool, tz: tz}
}
