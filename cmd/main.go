package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"shadowmonitor/cmd/contractlist"
	"shadowmonitor/cmd/scan"
	"shadowmonitor/cmd/web"
	"shadowmonitor/src/database"
	"shadowmonitor/src/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var Version string

func main() {
	_ = godotenv.Load()
	dbConfig := database.GetConfig()
	utils.SetupLogger(dbConfig.LogLevel, dbConfig.LogFormat)

	app := cli.NewApp()
	app.Name = "shadowmonitor"
	app.Usage = "Long-shadow candle monitor for Gate.io futures"
	app.Version = Version

	app.Commands = []cli.Command{
		webCMD,
		contractsCMD,
		scanCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	webCMD = cli.Command{
		Name:        "web",
		Usage:       "run the HTTP API and monitor",
		Action:      webAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Serve the monitor API until SIGINT/SIGTERM`,
	}
	contractsCMD = cli.Command{
		Name:      "contracts",
		Usage:     "list exchange contracts",
		Action:    contractsAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "filter", Usage: "symbol prefix, e.g. BTC"},
		},
		Description: `Fetch the contract list once and print name, multiplier and price tick`,
	}
	scanCMD = cli.Command{
		Name:      "scan",
		Usage:     "evaluate every active config once",
		Action:    scanAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.StringFlag{Name: "symbol", Usage: "only scan this symbol"},
		},
		Description: `Dry run: print the signals the monitor would emit now. Nothing is stored or traded`,
	}
)

func webAction(_ *cli.Context) error {
	logrus.Info("Starting web CMD")

	w := &web.Web{}
	if err := w.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}
	return nil
}

func contractsAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	list := &contractlist.ContractList{
		Log:    logrus.WithField("cmd", "contracts"),
		Out:    os.Stdout,
		Filter: c.String("filter"),
	}
	return list.Start(ctx)
}

func scanAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logrus.Info("Starting scan CMD")
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to connect to database")
		return err
	}

	s := &scan.Scan{
		Log:    logrus.WithField("cmd", "scan"),
		DB:     database.MainDB,
		Out:    os.Stdout,
		Symbol: c.String("symbol"),
	}
	if err := s.Start(ctx); err != nil {
		logrus.WithError(err).Error("Starting scan cmd")
		return err
	}
	return nil
}
