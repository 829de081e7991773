package web

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"shadowmonitor/src/bootstrap"
	"shadowmonitor/src/database"
	"shadowmonitor/src/server"

	"github.com/sirupsen/logrus"
)

// Web runs the HTTP API with the monitor behind it.
type Web struct{}

func (t *Web) Start() error {
	config := GetConfig()
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if database.MainDB == nil {
		if err := database.InitMainDB(); err != nil {
			logrus.WithError(err).Error("Failed to connect to main database")
			return err
		}
	}

	opts := bootstrap.OptionsFromEnv()
	app := bootstrap.Build(database.MainDB, opts)

	// The cache is rebuildable; a failed boot refresh only delays config edits.
	if _, err := app.Contracts.Refresh(ctx); err != nil {
		logrus.WithError(err).Warn("initial contract refresh failed")
	}
	if opts.Contracts.RefreshSchedule != "" {
		sched, err := app.Contracts.Schedule(opts.Contracts.RefreshSchedule)
		if err != nil {
			logrus.WithError(err).Error("invalid CONTRACT_REFRESH_SCHEDULE")
			return err
		}
		defer sched.Stop()
	}

	if err := app.Configs.Load(ctx); err != nil {
		logrus.WithError(err).Error("Failed to load monitor configs")
		return err
	}

	if config.AutoStart {
		res := app.Monitor.Start()
		logrus.WithField("success", res.Success).Info(res.Message)
	}

	err := server.StartServer(ctx, server.GetConfig(), server.NewRouter(app.HandlerDeps()))

	if app.Monitor.IsRunning() {
		res := app.Monitor.Stop()
		logrus.Info(res.Message)
	}
	return err
}
