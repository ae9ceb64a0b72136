// genjob is the batch entrypoint the external scheduler invokes: it runs
// one generation cycle, optionally injects an anomaly, and exits. The HTTP
// service in the repository root serves the same operations interactively.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sqlcamp/datagen/anomaly"
	"sqlcamp/datagen/config"
	"sqlcamp/datagen/database"
	"sqlcamp/datagen/generator"
	"sqlcamp/datagen/logger"
	"sqlcamp/datagen/models"
	"sqlcamp/datagen/profiles"
	"sqlcamp/datagen/store"
	"sqlcamp/datagen/utils"
)

type runtime struct {
	client    *database.Client
	assembler *generator.Assembler
	injector  *anomaly.Injector
	anomalies *store.AnomalyStore
}

func newRuntime(ctx context.Context) (*runtime, func(), error) {
	cfg := config.Load()
	zlog, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, err
	}

	client, err := database.Open(cfg.Driver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := store.EnsureSchema(ctx, client); err != nil {
		client.Close()
		return nil, nil, err
	}

	registry := profiles.NewRegistry()
	datasetStore := store.NewDatasetStore(client, zlog, cfg.CopyThreshold)
	anomalyStore := store.NewAnomalyStore(client)

	rt := &runtime{
		client: client,
		assembler: generator.NewAssembler(registry, datasetStore, zlog, generator.Options{
			UserCount:        cfg.UserCount,
			SignupWindowDays: cfg.SignupWindowDays,
			SessionsMin:      cfg.SessionsMin,
			SessionsMax:      cfg.SessionsMax,
			OrderProbability: cfg.OrderProbability,
			Seed:             cfg.Seed,
		}),
		injector:  anomaly.NewInjector(client, registry, anomalyStore, zlog, cfg.Seed),
		anomalies: anomalyStore,
	}
	cleanup := func() {
		client.Close()
		zlog.Sync()
	}
	return rt, cleanup, nil
}

func requireVertical(s string) (models.Vertical, error) {
	if !models.IsValidVertical(s) {
		return "", fmt.Errorf("unknown vertical %q", s)
	}
	return models.Vertical(s), nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env: %v", err)
	}

	var (
		verticalFlag string
		dateFlag     string
		kindFlag     string
	)

	root := &cobra.Command{
		Use:           "genjob",
		Short:         "Batch runner for the synthetic dataset generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&verticalFlag, "vertical", "commerce", "product vertical")
	root.PersistentFlags().StringVar(&dateFlag, "date", "", "target date (YYYY-MM-DD, default today)")

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate and load a fresh dataset for the vertical",
		RunE: func(cmd *cobra.Command, args []string) error {
			vertical, err := requireVertical(verticalFlag)
			if err != nil {
				return err
			}
			date, err := utils.ParseDate(dateFlag)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Minute)
			defer cancel()
			rt, cleanup, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			version, err := rt.assembler.GenerateDataset(ctx, vertical, date)
			if err != nil {
				return err
			}
			fmt.Printf("generated %d users / %d events for %s\n",
				version.UserCount, version.EventCount, vertical)
			return nil
		},
	}

	injectCmd := &cobra.Command{
		Use:   "inject",
		Short: "Inject one anomaly into the loaded dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			vertical, err := requireVertical(verticalFlag)
			if err != nil {
				return err
			}
			date, err := utils.ParseDate(dateFlag)
			if err != nil {
				return err
			}
			var opts anomaly.Options
			if kindFlag != "" {
				k, ok := utils.ParseAnomalyKind(kindFlag)
				if !ok {
					return fmt.Errorf("unknown anomaly kind %q", kindFlag)
				}
				opts.ForceKind = &k
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			rt, cleanup, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			rec, err := rt.injector.Inject(ctx, vertical, date, opts)
			if err != nil {
				return err
			}
			fmt.Printf("injected %s: %s\n", rec.AnomalyType, rec.Description)
			return nil
		},
	}
	injectCmd.Flags().StringVar(&kindFlag, "kind", "", "force a specific anomaly kind")

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the data summary consumed by the problem author",
		RunE: func(cmd *cobra.Command, args []string) error {
			vertical, err := requireVertical(verticalFlag)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			rt, cleanup, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			summary, err := rt.assembler.BuildDataSummary(ctx, vertical)
			if err != nil {
				return err
			}
			fmt.Println(summary)
			return nil
		},
	}

	root.AddCommand(generateCmd, injectCmd, summaryCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "genjob:", err)
		os.Exit(1)
	}
}
