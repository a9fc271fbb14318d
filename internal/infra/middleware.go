package infra

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	logger_lib "github.com/s21platform/logger-lib"
	"github.com/s21platform/metrics-lib/pkg"

	"github.com/agrilink/negotiation-service/internal/config"
)

func LoggerHTTP(next http.Handler, logger logger_lib.LoggerInterface) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), config.KeyLogger, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// MetricsHTTP counts responses per route and status class and records latency.
func MetricsHTTP(next http.Handler, metrics pkg.MetricInterface) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		ctx := context.WithValue(r.Context(), config.KeyMetrics, metrics)
		next.ServeHTTP(ww, r.WithContext(ctx))

		name := routeMetricName(r)
		metrics.Increment(fmt.Sprintf("%s.%dxx", name, ww.Status()/100))
		metrics.Duration(time.Since(start).Milliseconds(), name)
	})
}

func routeMetricName(r *http.Request) string {
	pattern := ""
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		pattern = rctx.RoutePattern()
	}
	if pattern == "" {
		pattern = "unmatched"
	}

	replacer := strings.NewReplacer("/", ".", "{", "", "}", "", "*", "any")
	return "http." + strings.ToLower(r.Method) + strings.TrimSuffix(replacer.Replace(pattern), ".")
}
