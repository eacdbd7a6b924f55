package analytics

import "time"

// ViewBy selects the reporting granularity for listings and tables.
type ViewBy string

const (
	ViewByDay   ViewBy = "DAY"
	ViewByMonth ViewBy = "MONTH"
)

// Label formats per granularity. Day rows carry "2006-01-02" labels,
// month rows "2006-01".
const (
	DayLabelLayout   = "2006-01-02"
	MonthLabelLayout = "2006-01"
)

// Order statuses as stored on the orders table. Only completed orders are
// ever aggregated.
const (
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// Order channels.
const (
	OrderTypeDineIn   = "DINE_IN"
	OrderTypeTakeout  = "TAKEOUT"
	OrderTypeDelivery = "DELIVERY"
)

// Payment channels.
const (
	PaymentTypeCard = "CARD"
	PaymentTypeCash = "CASH"
)

// Business hours bound the time/weekday reports unless the caller asks for
// the full day. Both bounds are inclusive.
const (
	BusinessHourStart = 7
	BusinessHourEnd   = 20
)

// SalesTotals carries the summed measures for one scan window. All monetary
// values are integer minor units.
type SalesTotals struct {
	Sales        int64
	Transactions int64
	Units        int64
	Discount     int64
}

// SalesRow is one day or month bucket of completed-order sales.
type SalesRow struct {
	Label         string
	Sales         int64
	Transactions  int64
	Units         int64
	Discount      int64
	DineInSales   int64
	TakeoutSales  int64
	DeliverySales int64
	CardSales     int64
	CashSales     int64
}

// SalesEntry augments a SalesRow with the derived retail KPIs.
type SalesEntry struct {
	SalesRow
	UnitsPerTransaction    float64
	AvgSpendPerTransaction int64
	AvgUnitRevenue         int64
}

// MenuSalesRow is one (label, menu) bucket.
type MenuSalesRow struct {
	Label    string
	MenuID   int64
	MenuName string
	Units    int64
	Sales    int64
}

// MenuSalesEntry augments a MenuSalesRow with average unit revenue.
type MenuSalesEntry struct {
	MenuSalesRow
	AvgUnitRevenue int64
}

// MenuTotalRow sums one menu over the whole window, used for rankings.
type MenuTotalRow struct {
	MenuID   int64
	MenuName string
	Units    int64
	Sales    int64
}

// RankedMenu is a ranking entry with its contribution share of total sales.
type RankedMenu struct {
	MenuID              int64
	MenuName            string
	Units               int64
	Sales               int64
	ContributionPercent float64
}

// MenuRankings holds the top and low performer lists for a window.
type MenuRankings struct {
	Top []RankedMenu
	Low []RankedMenu
}

// MaterialCostRow is one (label, material) bucket. Cost is the usage quantity
// divided by the conversion rate times the purchase price, summed exactly and
// rounded half-up to minor units at the end.
type MaterialCostRow struct {
	Label         string
	MaterialID    int64
	MaterialName  string
	Unit          string
	UsageQty      float64
	Cost          int64
	LabelSales    int64
	LastInbound   *time.Time
	ExpiringSoon  int64
}

// MaterialCostEntry augments a MaterialCostRow with its cost rate against the
// bucket's sales.
type MaterialCostEntry struct {
	MaterialCostRow
	CostRatePercent float64
}

// TimebandRow is one (label, weekday, hour) bucket. Weekday is ISO numbered,
// 1=Monday through 7=Sunday.
type TimebandRow struct {
	Label        string
	Weekday      int
	Hour         int
	Sales        int64
	Transactions int64
	Units        int64
}

// OrderRow is one completed order in the raw per-order listing.
type OrderRow struct {
	ID          int64
	Code        string
	OrderedAt   time.Time
	OrderType   string
	PaymentType string
	Total       int64
	Discount    int64
	Units       int64
}

// KPISummary is the fixed-shape dashboard card. WoWPercent is nil when the
// prior seven days had no sales; that null is distinct from a zero change.
type KPISummary struct {
	SalesMTD   int64    `json:"salesMtd"`
	TxMTD      int64    `json:"txMtd"`
	UnitsMTD   int64    `json:"unitsMtd"`
	UPTMtd     float64  `json:"uptMtd"`
	ADSMtd     int64    `json:"adsMtd"`
	AURMtd     int64    `json:"aurMtd"`
	WoWPercent *float64 `json:"wowPercent"`
}

// Page is one cursor page. NextCursor is present exactly when more rows exist
// strictly after the last returned row under the report's canonical ordering.
type Page[T any] struct {
	Items      []T     `json:"items"`
	NextCursor *string `json:"nextCursor"`
}

// BuildPage trims an over-fetched row slice (size+1 rows requested) to the
// page size and derives the next cursor from the last row actually returned.
func BuildPage[T any](rows []T, size int, encode func(T) string) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	page := Page[T]{Items: rows}
	if len(rows) > size {
		page.Items = rows[:size]
		cursor := encode(page.Items[size-1])
		page.NextCursor = &cursor
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page
}

// Page sizing defaults shared by the HTTP layer and the service.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)
