package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/adegaexpress/adega/pkg/logger"
	"github.com/adegaexpress/adega/pkg/metrics"
	"github.com/adegaexpress/adega/pkg/response"
)

// Recovery answers 500 for a panicking handler and logs the stack with the
// request id. http.ErrAbortHandler is re-raised so net/http can drop the
// connection quietly, which SSE and WebSocket handlers rely on.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			metrics.PanicsRecovered.WithLabelValues("http").Inc()
			logger.WithCtx(r.Context()).Error("http: panic recovered",
				"panic", fmt.Sprint(rec),
				"route", r.Method+" "+r.URL.Path,
				"stack", string(debug.Stack()),
			)
			response.Error(w, http.StatusInternalServerError, "Internal Server Error")
		}()
		next.ServeHTTP(w, r)
	})
}
