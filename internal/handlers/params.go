package handlers

import (
	"net/http"
	"strconv"

	"investBack/internal/models"
)

// getParam returns a path or query parameter value regardless of whether
// the router stores it with a leading colon or not. It also supports the
// standard net/http PathValue API available in recent Go versions.
func getParam(r *http.Request, name string) string {
	if r == nil {
		return ""
	}

	if val := r.URL.Query().Get(":" + name); val != "" {
		return val
	}

	if val := r.URL.Query().Get(name); val != "" {
		return val
	}

	return r.PathValue(name)
}

// amountParam parses a minor-unit amount from a query parameter. A missing
// parameter is zero, which downstream snapping treats as "full".
func amountParam(r *http.Request, name string) (int64, error) {
	raw := getParam(r, name)
	if raw == "" {
		return 0, nil
	}
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || amount < 0 {
		return 0, models.ErrAmountOutOfRange
	}
	return amount, nil
}

func boolParam(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(getParam(r, name))
	return v
}

// sessionFromContext extracts the session stored by the authentication
// middleware.
func sessionFromContext(r *http.Request) (models.Session, bool) {
	session, ok := r.Context().Value("session").(models.Session)
	return session, ok
}
