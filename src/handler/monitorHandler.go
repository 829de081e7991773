package handler

import (
	"context"
	"net/http"

	"shadowmonitor/src/model"
)

type monitorService interface {
	Start() model.OperationResult
	Stop() model.OperationResult
	Status(ctx context.Context) (model.MonitorStatus, error)
}

func StatusHandler(svc monitorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Status(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, st)
	}
}

// StartHandler answers 409 when the monitor could not be started.
func StartHandler(svc monitorService) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeResult(w, svc.Start())
	}
}

// StopHandler answers 409 when the monitor was not running.
func StopHandler(svc monitorService) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeResult(w, svc.Stop())
	}
}

func writeResult(w http.ResponseWriter, res model.OperationResult) {
	status := http.StatusOK
	if !res.Success {
		status = http.StatusConflict
	}
	writeJSON(w, status, envelope{Success: res.Success, Message: res.Message})
}
