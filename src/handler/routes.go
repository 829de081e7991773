package handler

import (
	"github.com/go-chi/chi/v5"
)

// Deps are the services behind the API routes.
type Deps struct {
	Monitor   monitorService
	Signals   signalLister
	Orders    orderLister
	Configs   configStore
	Contracts contractRefresher
	Notifier  notifierTester
}

// Register mounts the /api routes on r.
func Register(r chi.Router, d Deps) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/monitor/status", StatusHandler(d.Monitor))
		r.Post("/monitor/start", StartHandler(d.Monitor))
		r.Post("/monitor/stop", StopHandler(d.Monitor))

		r.Get("/signals", ListSignalsHandler(d.Signals))
		r.Get("/orders", ListOrdersHandler(d.Orders))

		r.Get("/configs", ListConfigsHandler(d.Configs))
		r.Post("/configs", ReplaceConfigsHandler(d.Configs))

		r.Post("/contracts/fetch", RefreshContractsHandler(d.Contracts))
		r.Get("/dingtalk/test", TestNotifierHandler(d.Notifier))
	})
}
