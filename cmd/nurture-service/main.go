package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/mycelian/nurture-tracker/internal/nurtureservice"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	if err := nurtureservice.Run(); err != nil {
		log.Error().Err(err).Msg("nurture-service exited with error")
		os.Exit(1)
	}
}
