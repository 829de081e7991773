package handler

import (
	"context"
	"net/http"

	"shadowmonitor/src/model"
)

type orderLister interface {
	Recent(ctx context.Context, limit int) ([]model.Order, error)
}

type signalLister interface {
	Recent(ctx context.Context, limit int) ([]model.Signal, error)
}

// ListOrdersHandler returns the order log, newest first. Supports ?limit= (default 100).
func ListOrdersHandler(repo orderLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := parseLimit(r)
		if err != nil {
			writeError(w, err)
			return
		}

		orders, err := repo.Recent(r.Context(), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		if orders == nil {
			orders = []model.Order{}
		}
		writeData(w, orders)
	}
}

// ListSignalsHandler returns the signal log, newest first. Supports ?limit= (default 100).
func ListSignalsHandler(repo signalLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := parseLimit(r)
		if err != nil {
			writeError(w, err)
			return
		}

		signals, err := repo.Recent(r.Context(), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		if signals == nil {
			signals = []model.Signal{}
		}
		writeData(w, signals)
	}
}
