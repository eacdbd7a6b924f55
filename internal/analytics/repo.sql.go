package analytics

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// The SQL here is the aggregation query engine. Every statement groups
// completed-order facts into one row per group key and applies the keyset
// predicate plus ORDER BY that the cursor codec mirrors. Bucketing happens in
// the business time zone; windows are bound half-open as [start, end).

func labelFormat(viewBy ViewBy) string {
	if viewBy == ViewByMonth {
		return "YYYY-MM"
	}
	return "YYYY-MM-DD"
}

func (r *PGRepository) ready() error {
	if r == nil || r.pool == nil {
		return errors.New("analytics repository not initialised")
	}
	return nil
}

// SalesSummary sums the window into a single totals row. A store without
// completed orders in the window yields all zeroes, which is a valid state.
func (r *PGRepository) SalesSummary(ctx context.Context, storeID int64, win Window) (SalesTotals, error) {
	if err := r.ready(); err != nil {
		return SalesTotals{}, err
	}
	if win.IsEmpty() {
		return SalesTotals{}, nil
	}
	const query = `
SELECT COALESCE(SUM(o.total_price), 0)::bigint,
       COUNT(*)::bigint,
       COALESCE(SUM(ol.units), 0)::bigint,
       COALESCE(SUM(o.discount), 0)::bigint
FROM orders o
LEFT JOIN LATERAL (
    SELECT COALESCE(SUM(l.quantity), 0)::bigint AS units
    FROM order_lines l WHERE l.order_id = o.id
) ol ON true
WHERE o.store_id = $1 AND o.status = 'COMPLETED'
  AND o.ordered_at >= $2 AND o.ordered_at < $3`
	var totals SalesTotals
	err := r.pool.QueryRow(ctx, query, storeID, win.Start, win.End).
		Scan(&totals.Sales, &totals.Transactions, &totals.Units, &totals.Discount)
	if err != nil {
		return SalesTotals{}, fmt.Errorf("analytics: sales summary: %w", err)
	}
	return totals, nil
}

// SalesByPeriod groups completed orders into day or month buckets with
// channel splits, sorted label descending.
func (r *PGRepository) SalesByPeriod(ctx context.Context, q SalesQuery) ([]SalesRow, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	const query = `
SELECT g.label, g.sales, g.tx, g.units, g.discount,
       g.dine_in, g.takeout, g.delivery, g.card, g.cash
FROM (
    SELECT to_char(o.ordered_at AT TIME ZONE $2, $3) AS label,
           COALESCE(SUM(o.total_price), 0)::bigint AS sales,
           COUNT(*)::bigint AS tx,
           COALESCE(SUM(ol.units), 0)::bigint AS units,
           COALESCE(SUM(o.discount), 0)::bigint AS discount,
           COALESCE(SUM(o.total_price) FILTER (WHERE o.order_type = 'DINE_IN'), 0)::bigint AS dine_in,
           COALESCE(SUM(o.total_price) FILTER (WHERE o.order_type = 'TAKEOUT'), 0)::bigint AS takeout,
           COALESCE(SUM(o.total_price) FILTER (WHERE o.order_type = 'DELIVERY'), 0)::bigint AS delivery,
           COALESCE(SUM(o.total_price) FILTER (WHERE o.payment_type = 'CARD'), 0)::bigint AS card,
           COALESCE(SUM(o.total_price) FILTER (WHERE o.payment_type = 'CASH'), 0)::bigint AS cash
    FROM orders o
    LEFT JOIN LATERAL (
        SELECT COALESCE(SUM(l.quantity), 0)::bigint AS units
        FROM order_lines l WHERE l.order_id = o.id
    ) ol ON true
    WHERE o.store_id = $1 AND o.status = 'COMPLETED'
      AND o.ordered_at >= $4 AND o.ordered_at < $5
    GROUP BY 1
) g
WHERE ($6::text IS NULL OR g.label < $6)
ORDER BY g.label DESC
LIMIT $7`
	rows, err := r.pool.Query(ctx, query,
		q.StoreID, r.tz, labelFormat(q.ViewBy), q.Window.Start, q.Window.End,
		labelCursorParam(q.After), q.Limit)
	if err != nil {
		return nil, fmt.Errorf("analytics: sales by period: %w", err)
	}
	defer rows.Close()
	var out []SalesRow
	for rows.Next() {
		var row SalesRow
		if err := rows.Scan(&row.Label, &row.Sales, &row.Transactions, &row.Units, &row.Discount,
			&row.DineInSales, &row.TakeoutSales, &row.DeliverySales, &row.CardSales, &row.CashSales); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MenuSales groups order lines into (label, menu) buckets sorted label desc,
// menu id asc.
func (r *PGRepository) MenuSales(ctx context.Context, q MenuQuery) ([]MenuSalesRow, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	const query = `
SELECT g.label, g.menu_id, g.menu_name, g.units, g.sales
FROM (
    SELECT to_char(o.ordered_at AT TIME ZONE $2, $3) AS label,
           l.menu_id,
           COALESCE(m.name, '') AS menu_name,
           COALESCE(SUM(l.quantity), 0)::bigint AS units,
           COALESCE(SUM(l.line_total), 0)::bigint AS sales
    FROM orders o
    JOIN order_lines l ON l.order_id = o.id
    LEFT JOIN menus m ON m.id = l.menu_id
    WHERE o.store_id = $1 AND o.status = 'COMPLETED'
      AND o.ordered_at >= $4 AND o.ordered_at < $5
    GROUP BY 1, l.menu_id, m.name
) g
WHERE ($6::text IS NULL OR g.label < $6 OR (g.label = $6 AND g.menu_id > $7))
ORDER BY g.label DESC, g.menu_id ASC
LIMIT $8`
	label, id := entityCursorParams(q.After)
	rows, err := r.pool.Query(ctx, query,
		q.StoreID, r.tz, labelFormat(q.ViewBy), q.Window.Start, q.Window.End,
		label, id, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("analytics: menu sales: %w", err)
	}
	defer rows.Close()
	var out []MenuSalesRow
	for rows.Next() {
		var row MenuSalesRow
		if err := rows.Scan(&row.Label, &row.MenuID, &row.MenuName, &row.Units, &row.Sales); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MenuTotals sums each menu over the whole window for ranking.
func (r *PGRepository) MenuTotals(ctx context.Context, storeID int64, win Window) ([]MenuTotalRow, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if win.IsEmpty() {
		return nil, nil
	}
	const query = `
SELECT l.menu_id,
       COALESCE(m.name, '') AS menu_name,
       COALESCE(SUM(l.quantity), 0)::bigint AS units,
       COALESCE(SUM(l.line_total), 0)::bigint AS sales
FROM orders o
JOIN order_lines l ON l.order_id = o.id
LEFT JOIN menus m ON m.id = l.menu_id
WHERE o.store_id = $1 AND o.status = 'COMPLETED'
  AND o.ordered_at >= $2 AND o.ordered_at < $3
GROUP BY l.menu_id, m.name
ORDER BY l.menu_id`
	rows, err := r.pool.Query(ctx, query, storeID, win.Start, win.End)
	if err != nil {
		return nil, fmt.Errorf("analytics: menu totals: %w", err)
	}
	defer rows.Close()
	var out []MenuTotalRow
	for rows.Next() {
		var row MenuTotalRow
		if err := rows.Scan(&row.MenuID, &row.MenuName, &row.Units, &row.Sales); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MaterialCosts groups usage events into (label, material) buckets. The cost
// measure divides usage by the conversion rate (treating null or zero as 1 so
// unmaintained rates neither divide by zero nor inflate cost) and multiplies
// by the purchase price, null priced as 0. Sums stay exact until the final
// half-up rounding into minor units.
func (r *PGRepository) MaterialCosts(ctx context.Context, q MaterialQuery) ([]MaterialCostRow, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	const query = `
SELECT g.label, g.material_id, g.material_name, g.base_unit,
       g.usage_qty::text, g.cost::text,
       s.label_sales, ib.last_inbound, ib.expiring_soon
FROM (
    SELECT to_char(o.ordered_at AT TIME ZONE $2, $3) AS label,
           u.store_material_id AS material_id,
           COALESCE(sm.display_name, mm.name, '') AS material_name,
           COALESCE(sm.base_unit, '') AS base_unit,
           COALESCE(SUM(u.quantity), 0) AS usage_qty,
           COALESCE(SUM(
               u.quantity
               / CASE WHEN COALESCE(sm.conversion_rate, 0) = 0 THEN 1 ELSE sm.conversion_rate END
               * COALESCE(sm.purchase_price, 0)
           ), 0) AS cost
    FROM material_usage_events u
    JOIN orders o ON o.id = u.order_id
    JOIN store_materials sm ON sm.id = u.store_material_id
    LEFT JOIN master_materials mm ON mm.id = sm.master_material_id
    WHERE o.store_id = $1 AND o.status = 'COMPLETED'
      AND o.ordered_at >= $4 AND o.ordered_at < $5
    GROUP BY 1, u.store_material_id, sm.display_name, mm.name, sm.base_unit
) g
LEFT JOIN LATERAL (
    SELECT COALESCE(SUM(o2.total_price), 0)::bigint AS label_sales
    FROM orders o2
    WHERE o2.store_id = $1 AND o2.status = 'COMPLETED'
      AND o2.ordered_at >= $4 AND o2.ordered_at < $5
      AND to_char(o2.ordered_at AT TIME ZONE $2, $3) = g.label
) s ON true
LEFT JOIN LATERAL (
    SELECT MAX(b.received_at) AS last_inbound,
           COUNT(*) FILTER (
               WHERE b.expires_on IS NOT NULL
                 AND b.expires_on <= (now() AT TIME ZONE $2)::date + 7
           )::bigint AS expiring_soon
    FROM inventory_batches b
    WHERE b.store_material_id = g.material_id
) ib ON true
WHERE ($6::text IS NULL OR g.label < $6 OR (g.label = $6 AND g.material_id > $7))
ORDER BY g.label DESC, g.material_id ASC
LIMIT $8`
	label, id := entityCursorParams(q.After)
	rows, err := r.pool.Query(ctx, query,
		q.StoreID, r.tz, labelFormat(q.ViewBy), q.Window.Start, q.Window.End,
		label, id, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("analytics: material costs: %w", err)
	}
	defer rows.Close()
	var out []MaterialCostRow
	for rows.Next() {
		var (
			row     MaterialCostRow
			qtyRaw  string
			costRaw string
		)
		if err := rows.Scan(&row.Label, &row.MaterialID, &row.MaterialName, &row.Unit,
			&qtyRaw, &costRaw, &row.LabelSales, &row.LastInbound, &row.ExpiringSoon); err != nil {
			return nil, err
		}
		qty, err := decimal.NewFromString(qtyRaw)
		if err != nil {
			return nil, fmt.Errorf("analytics: parse usage qty %q: %w", qtyRaw, err)
		}
		cost, err := decimal.NewFromString(costRaw)
		if err != nil {
			return nil, fmt.Errorf("analytics: parse cost %q: %w", costRaw, err)
		}
		row.UsageQty, _ = qty.Float64()
		row.Cost = RoundMoney(cost)
		out = append(out, row)
	}
	return out, rows.Err()
}

// MaterialCostTotal sums the exact material cost for the whole window and
// rounds once at the end.
func (r *PGRepository) MaterialCostTotal(ctx context.Context, storeID int64, win Window) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	if win.IsEmpty() {
		return 0, nil
	}
	const query = `
SELECT COALESCE(SUM(
           u.quantity
           / CASE WHEN COALESCE(sm.conversion_rate, 0) = 0 THEN 1 ELSE sm.conversion_rate END
           * COALESCE(sm.purchase_price, 0)
       ), 0)::text
FROM material_usage_events u
JOIN orders o ON o.id = u.order_id
JOIN store_materials sm ON sm.id = u.store_material_id
WHERE o.store_id = $1 AND o.status = 'COMPLETED'
  AND o.ordered_at >= $2 AND o.ordered_at < $3`
	var raw string
	if err := r.pool.QueryRow(ctx, query, storeID, win.Start, win.End).Scan(&raw); err != nil {
		return 0, fmt.Errorf("analytics: material cost total: %w", err)
	}
	total, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("analytics: parse cost total %q: %w", raw, err)
	}
	return RoundMoney(total), nil
}

// TimebandSales groups into (label, weekday, hour) buckets. Weekday is
// derived from Postgres' Sunday-based DOW and shifted onto ISO numbering
// (1=Monday .. 7=Sunday). Hours outside [7, 20] are filtered out unless the
// query asks for the full day.
func (r *PGRepository) TimebandSales(ctx context.Context, q TimebandQuery) ([]TimebandRow, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	const query = `
SELECT g.label, g.weekday, g.hour, g.sales, g.tx, g.units
FROM (
    SELECT to_char(o.ordered_at AT TIME ZONE $2, $3) AS label,
           ((EXTRACT(DOW FROM o.ordered_at AT TIME ZONE $2)::int + 6) % 7) + 1 AS weekday,
           EXTRACT(HOUR FROM o.ordered_at AT TIME ZONE $2)::int AS hour,
           COALESCE(SUM(o.total_price), 0)::bigint AS sales,
           COUNT(*)::bigint AS tx,
           COALESCE(SUM(ol.units), 0)::bigint AS units
    FROM orders o
    LEFT JOIN LATERAL (
        SELECT COALESCE(SUM(l.quantity), 0)::bigint AS units
        FROM order_lines l WHERE l.order_id = o.id
    ) ol ON true
    WHERE o.store_id = $1 AND o.status = 'COMPLETED'
      AND o.ordered_at >= $4 AND o.ordered_at < $5
    GROUP BY 1, 2, 3
) g
WHERE ($6::bool OR g.hour BETWEEN $7 AND $8)
  AND ($9::text IS NULL
       OR g.label < $9
       OR (g.label = $9 AND (g.weekday > $10 OR (g.weekday = $10 AND g.hour > $11))))
ORDER BY g.label DESC, g.weekday ASC, g.hour ASC
LIMIT $12`
	var (
		label   any
		weekday = 0
		hour    = -1
	)
	if q.After != nil {
		label = q.After.Label
		weekday = q.After.Weekday
		hour = q.After.Hour
	}
	rows, err := r.pool.Query(ctx, query,
		q.StoreID, r.tz, labelFormat(q.ViewBy), q.Window.Start, q.Window.End,
		q.FullDay, BusinessHourStart, BusinessHourEnd,
		label, weekday, hour, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("analytics: timeband sales: %w", err)
	}
	defer rows.Close()
	var out []TimebandRow
	for rows.Next() {
		var row TimebandRow
		if err := rows.Scan(&row.Label, &row.Weekday, &row.Hour, &row.Sales, &row.Transactions, &row.Units); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CompletedOrders lists raw completed orders keyset-paged on row id
// descending.
func (r *PGRepository) CompletedOrders(ctx context.Context, q OrderQuery) ([]OrderRow, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	const query = `
SELECT o.id, o.code, o.ordered_at, o.order_type, o.payment_type,
       o.total_price, o.discount, ol.units
FROM orders o
LEFT JOIN LATERAL (
    SELECT COALESCE(SUM(l.quantity), 0)::bigint AS units
    FROM order_lines l WHERE l.order_id = o.id
) ol ON true
WHERE o.store_id = $1 AND o.status = 'COMPLETED'
  AND o.ordered_at >= $2 AND o.ordered_at < $3
  AND ($4::bigint = 0 OR o.id < $4)
ORDER BY o.id DESC
LIMIT $5`
	var after int64
	if q.After != nil {
		after = q.After.ID
	}
	rows, err := r.pool.Query(ctx, query, q.StoreID, q.Window.Start, q.Window.End, after, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("analytics: completed orders: %w", err)
	}
	defer rows.Close()
	var out []OrderRow
	for rows.Next() {
		var row OrderRow
		if err := rows.Scan(&row.ID, &row.Code, &row.OrderedAt, &row.OrderType, &row.PaymentType,
			&row.Total, &row.Discount, &row.Units); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ActiveStoreIDs lists stores with recent completed orders, used by the cache
// warmup job to discover its scopes.
func (r *PGRepository) ActiveStoreIDs(ctx context.Context) ([]int64, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	const query = `
SELECT DISTINCT store_id FROM orders
WHERE status = 'COMPLETED' AND ordered_at >= now() - interval '35 days'
ORDER BY store_id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("analytics: active stores: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func labelCursorParam(c *LabelCursor) any {
	if c == nil {
		return nil
	}
	return c.Label
}

func entityCursorParams(c *EntityCursor) (any, int64) {
	if c == nil {
		return nil, 0
	}
	return c.Label, c.EntityID
}
