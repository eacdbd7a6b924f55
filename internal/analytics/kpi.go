package analytics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// KPIFilter scopes the dashboard summary card. Today is the caller's
// wall-clock date in the business time zone, injected explicitly so tests
// and the warmup job can fix it.
type KPIFilter struct {
	StoreID int64
	Today   time.Time
}

// GetKPISummary resolves the month-to-date card with the week-over-week
// comparison. MTD runs from the first of the month through yesterday; on the
// first of the month the window is empty and every sum is zero. The three
// window scans run concurrently.
func (s *Service) GetKPISummary(ctx context.Context, filter KPIFilter) (KPISummary, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		mtd := MonthToDate(filter.Today, s.loc)
		recentWin, priorWin := TrailingWeeks(filter.Today, s.loc)

		var mtdTotals, recentTotals, priorTotals SalesTotals
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			totals, err := s.repo.SalesSummary(gctx, filter.StoreID, mtd)
			if err != nil {
				return err
			}
			mtdTotals = totals
			return nil
		})
		g.Go(func() error {
			totals, err := s.repo.SalesSummary(gctx, filter.StoreID, recentWin)
			if err != nil {
				return err
			}
			recentTotals = totals
			return nil
		})
		g.Go(func() error {
			totals, err := s.repo.SalesSummary(gctx, filter.StoreID, priorWin)
			if err != nil {
				return err
			}
			priorTotals = totals
			return nil
		})
		if err := g.Wait(); err != nil {
			return KPISummary{}, err
		}

		summary := KPISummary{
			SalesMTD:   mtdTotals.Sales,
			TxMTD:      mtdTotals.Transactions,
			UnitsMTD:   mtdTotals.Units,
			UPTMtd:     UnitsPerTransaction(mtdTotals.Units, mtdTotals.Transactions),
			ADSMtd:     AvgSpendPerTransaction(mtdTotals.Sales, mtdTotals.Transactions),
			AURMtd:     AvgUnitRevenue(mtdTotals.Sales, mtdTotals.Units),
			WoWPercent: WeekOverWeekPercent(recentTotals.Sales, priorTotals.Sales),
		}
		return summary, nil
	}

	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return KPISummary{}, err
		}
		return value.(KPISummary), nil
	}

	keyBase := keyKPI(filter.StoreID, filter.Today.In(s.loc).Format(DayLabelLayout))
	key, err := s.cache.BuildKey(ctx, keyBase)
	if err != nil {
		return KPISummary{}, err
	}
	var summary KPISummary
	if err := s.cache.FetchJSON(ctx, key, &summary, loader); err != nil {
		return KPISummary{}, err
	}
	return summary, nil
}
