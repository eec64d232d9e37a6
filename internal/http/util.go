package httpx

import (
	"context"
	"net/http"
	"strconv"
)

// registryOp is a single-account registry mutation.
type registryOp func(ctx context.Context, uid string) error

// parseIntQuery returns the integer value of a query param or a default.
// It is tolerant of missing/invalid values.
func parseIntQuery(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
