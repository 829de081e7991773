package handler

import (
	"context"
	"fmt"
	"net/http"
)

type contractRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

type notifierTester interface {
	Test(ctx context.Context) error
}

// RefreshContractsHandler reloads the contract cache. The cache bounds the call with its own timeout.
func RefreshContractsHandler(cache contractRefresher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := cache.Refresh(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{
			Success: true,
			Message: fmt.Sprintf("loaded %d contracts", n),
			Data:    map[string]int{"count": n},
		})
	}
}

// TestNotifierHandler sends a probe message through the notifier.
func TestNotifierHandler(n notifierTester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := n.Test(r.Context()); err != nil {
			writeJSON(w, http.StatusOK, envelope{Success: false, Message: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, envelope{Success: true, Message: "test message sent"})
	}
}
