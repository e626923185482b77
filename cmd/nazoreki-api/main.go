package main

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("command failed")
		}
		os.Exit(1)
	}
}
