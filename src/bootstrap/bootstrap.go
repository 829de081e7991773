// Package bootstrap wires the monitor's components for the binaries.
package bootstrap

import (
	"shadowmonitor/src/candles"
	"shadowmonitor/src/configstore"
	"shadowmonitor/src/connectors"
	"shadowmonitor/src/contracts"
	"shadowmonitor/src/dispatcher"
	"shadowmonitor/src/handler"
	"shadowmonitor/src/monitor"
	"shadowmonitor/src/notifier"
	"shadowmonitor/src/repository"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Options struct {
	Connectors connectors.Config
	Contracts  contracts.Config
	Monitor    monitor.Config
}

// OptionsFromEnv reads every component config from the environment.
func OptionsFromEnv() Options {
	return Options{
		Connectors: connectors.GetConfig(),
		Contracts:  contracts.GetConfig(),
		Monitor:    monitor.GetConfig(),
	}
}

type App struct {
	Gate       *connectors.GateClient
	Contracts  *contracts.Cache
	Configs    *configstore.Store
	Candles    *candles.Source
	Signals    *repository.SignalRepository
	Orders     *repository.OrderRepository
	Exceptions *repository.ExceptionRepository
	Notifier   *notifier.Notifier
	Dispatcher *dispatcher.Dispatcher
	Monitor    *monitor.Service
}

// Build connects every component over db. Nothing is started.
func Build(db *gorm.DB, opts Options) *App {
	limiter := connectors.NewLimiter(opts.Connectors)
	gate := connectors.NewGateClient(opts.Connectors, limiter)

	var fetcher candles.Fetcher = gate
	if opts.Connectors.CandleSource == connectors.CandleSourceBinance {
		logger.Info("using binance klines as candle source")
		fetcher = connectors.NewBinanceCandles(opts.Connectors, limiter)
	}

	var sender notifier.Sender
	if dt := connectors.NewDingTalkClient(opts.Connectors); dt != nil {
		sender = dt
	}

	app := &App{
		Gate:       gate,
		Contracts:  contracts.NewCache(gate, opts.Contracts.RefreshTimeout),
		Candles:    candles.NewSource(fetcher),
		Signals:    repository.NewSignalRepository().WithDB(db),
		Orders:     repository.NewOrderRepository().WithDB(db),
		Exceptions: repository.NewExceptionRepository().WithDB(db),
		Notifier:   notifier.New(sender),
	}
	app.Configs = configstore.New(repository.NewMonitorConfigRepository().WithDB(db), app.Contracts)
	app.Dispatcher = dispatcher.New(gate, app.Contracts, app.Orders)
	app.Monitor = monitor.NewService(monitor.Deps{
		Configs:    app.Configs,
		Candles:    app.Candles,
		Signals:    app.Signals,
		Orders:     app.Orders,
		Dispatcher: app.Dispatcher,
		Notifier:   app.Notifier,
		Contracts:  app.Contracts,
		Exceptions: app.Exceptions,
	}, opts.Monitor)

	return app
}

// HandlerDeps exposes the app to the HTTP routes.
func (a *App) HandlerDeps() handler.Deps {
	return handler.Deps{
		Monitor:   a.Monitor,
		Signals:   a.Signals,
		Orders:    a.Orders,
		Configs:   a.Configs,
		Contracts: a.Contracts,
		Notifier:  a.Notifier,
	}
}
