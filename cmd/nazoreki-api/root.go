package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nazoreki/nazoreki-api/internal/api"
	"github.com/nazoreki/nazoreki-api/internal/app"
	"github.com/nazoreki/nazoreki-api/internal/catalog"
	"github.com/nazoreki/nazoreki-api/internal/fetch"
	"github.com/nazoreki/nazoreki-api/internal/llm"
	"github.com/nazoreki/nazoreki-api/internal/pipeline"
	"github.com/nazoreki/nazoreki-api/internal/repair"
)

func newRootCommand() *cobra.Command {
	var configPath string
	var verbose bool

	var cfg app.Config

	rootCmd := &cobra.Command{
		Use:           "nazoreki-api",
		Short:         "Event extraction service for the nazoreki catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zerolog.TimeFieldFormat = time.RFC3339
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

			_ = app.LoadDotenv(".env")

			cfg = app.Default()
			if err := app.LoadFile(configPath, &cfg); err != nil {
				return err
			}
			cfg.ApplyEnv()
			if verbose {
				cfg.Verbose = true
			}
			if cfg.Verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "nazoreki.yaml", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(newServeCommand(&cfg))
	rootCmd.AddCommand(newExtractCommand(&cfg))
	rootCmd.AddCommand(newModelsCommand(&cfg))

	return rootCmd
}

// newExtractor wires the pipeline from configuration.
func newExtractor(cfg *app.Config) *pipeline.Extractor {
	return &pipeline.Extractor{
		Fetcher: &fetch.Client{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.FetchTimeout,
		},
		Resolver: newResolver(cfg),
		Client:   llm.New(cfg.GeminiAPIKey, cfg.GenerateBaseURL, cfg.GenerateTimeout),
		Repairer: &repair.Repairer{},
		APIKey:   cfg.GeminiAPIKey,
		Timeout:  cfg.GenerateTimeout,
	}
}

func newResolver(cfg *app.Config) *catalog.Resolver {
	return &catalog.Resolver{
		Explicit: cfg.GeminiModel,
		BaseURL:  cfg.ModelsBaseURL,
		APIKey:   cfg.GeminiAPIKey,
		Timeout:  cfg.DiscoveryTimeout,
		Fallback: cfg.FallbackModels,
	}
}

func newServeCommand(cfg *app.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the extraction HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := &api.Server{
				Extractor:      newExtractor(cfg),
				Addr:           cfg.Addr,
				AllowedOrigins: cfg.AllowedOrigins,
			}
			return srv.ListenAndServe(ctx)
		},
	}
}

func newExtractCommand(cfg *app.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <url>",
		Short: "Run one extraction and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ev, err := newExtractor(cfg).Extract(ctx, args[0])
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(ev, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newModelsCommand(cfg *app.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Print the resolved model candidates in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			candidates := newResolver(cfg).Candidates(ctx)
			rows := make([][]string, 0, len(candidates))
			for i, c := range candidates {
				rows = append(rows, []string{fmt.Sprintf("%d", i+1), c.Identifier, c.Origin.String()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "Model", "Origin"}, rows))
			return nil
		},
	}
}
