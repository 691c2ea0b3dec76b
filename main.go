package main

import (
	"time"

	"authweb/internal/configuration"
	"authweb/internal/core"
	"authweb/internal/remote"
	"authweb/internal/session"

	"go.uber.org/zap"
)

func main() {
	zap.ReplaceGlobals(zap.Must(zap.NewProduction()))

	config := configuration.Read()
	core.NewLogger(config.App.LogLevel)

	api := remote.New(
		config.API.BaseURL,
		time.Duration(config.API.TimeoutSeconds)*time.Second,
		zap.L(),
	)

	persister := session.NewFilePersister(config.Session.File)
	store := session.NewStore(api, persister, zap.L())

	core.StartHTTPServer(config, store, api)
}
