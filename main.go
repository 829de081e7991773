package main

import (
	"fmt"
	"os"
	"time"

	"shadowmonitor/cmd/web"
	"shadowmonitor/src/database"
	"shadowmonitor/src/utils"

	"github.com/joho/godotenv"
	logger "github.com/sirupsen/logrus"
)

var APP_NAME = os.Getenv("APP_NAME")

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	dbConfig := database.GetConfig()
	utils.SetupLogger(dbConfig.LogLevel, dbConfig.LogFormat)
	defer handlePanic()

	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	w := &web.Web{}
	if err := w.Start(); err != nil {
		logger.WithError(err).Error("web server stopped with error")
		os.Exit(1)
	}
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
		//nolint
		time.Sleep(time.Second * 5)
	}
}
