package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the analytics endpoints onto the router. Export
// routes carry a tighter rate limit because each request fans out into
// several window scans plus a render.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/analytics/kpi", h.handleKPI)
	r.Get("/analytics/sales", h.handleSales)
	r.Get("/analytics/menus", h.handleMenus)
	r.Get("/analytics/menus/top", h.handleMenusTop)
	r.Get("/analytics/materials", h.handleMaterials)
	r.Get("/analytics/timebands", h.handleTimebands)
	r.Get("/analytics/orders", h.handleOrders)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/analytics/report.pdf", h.handlePDF)
		gr.Get("/analytics/export.csv", h.handleCSV)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if store := r.URL.Query().Get("store_id"); store != "" {
		return "store:" + store, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
