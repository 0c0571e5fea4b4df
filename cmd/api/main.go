package main

import (
	"os"

	"github.com/yigit/feedbackhub/internal/pkg/logger"
	"github.com/yigit/feedbackhub/internal/server"
)

func main() {
	srv, err := server.NewServer()
	if err != nil {
		// setup errors are logged where they happen
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
