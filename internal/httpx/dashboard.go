package httpx

import (
	"context"
	"github.com/ariefcatur/go-stock-orders/internal/orders"
	"github.com/sirupsen/logrus"
	"net/http"
	"time"
)

type DashboardService interface {
	Dashboard(ctx context.Context) (orders.Counts, error)
}

// Dashboard serves the record counts for the home page.
func Dashboard(svc DashboardService, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		c, err := svc.Dashboard(ctx)
		if err != nil {
			writeServiceError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}
