package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"shadowmonitor/src/apperrors"
	"shadowmonitor/src/model"

	logger "github.com/sirupsen/logrus"
)

type configStore interface {
	List() []model.MonitorConfig
	ReplaceAll(ctx context.Context, configs []model.MonitorConfig) ([]model.MonitorConfig, error)
}

func ListConfigsHandler(store configStore) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		configs := store.List()
		if configs == nil {
			configs = []model.MonitorConfig{}
		}
		writeData(w, configs)
	}
}

// ReplaceConfigsHandler swaps the whole config set for the JSON array in the body.
// A rejected batch answers 400 with the offending index and reason.
func ReplaceConfigsHandler(store configStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload []model.MonitorConfig
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid monitor config payload")
			writeError(w, &apperrors.ValidationError{Index: -1, Reason: "invalid payload: " + err.Error()})
			return
		}

		saved, err := store.ReplaceAll(r.Context(), payload)
		if err != nil {
			writeError(w, err)
			return
		}

		logger.WithField("count", len(saved)).Info("monitor configs replaced")
		writeData(w, saved)
	}
}
