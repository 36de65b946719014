package main

import (
	"github.com/OFFIS-RIT/formkv/internal/server"
	"github.com/OFFIS-RIT/formkv/internal/util"
	"github.com/OFFIS-RIT/formkv/pkg/logger"
	"github.com/OFFIS-RIT/formkv/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Prefix: "server",
	})
	logger.Init(consoleLogger)
	if !debug {
		logger.SetLevel(logger.LevelInfo)
	}

	server.Init()
}
