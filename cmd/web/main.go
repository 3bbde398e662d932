package main

import (
	"cardtracker/internal/logger"
	"cardtracker/internal/server"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Log.Fatal().Err(err).Msg("server exited")
	}
}
