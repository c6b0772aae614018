package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Brownie44l1/biryani-api/internal/config"
	"github.com/Brownie44l1/biryani-api/internal/logger"
	"github.com/Brownie44l1/biryani-api/internal/metrics"
)

var (
	cfgFile string
	version = "dev"
	cfg     *config.Config

	rootCmd = &cobra.Command{
		Use:   "biryani",
		Short: "Tells you whether a photo shows a biryani",
		Long: `biryani runs photos through a pre-trained two-class image model
and reports a biryani / not-biryani confidence for each one.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	cancel()
	_ = metrics.Close()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Log); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	if err := metrics.Init(cfg.Metrics.StatsdAddr, cfg.Metrics.Tags); err != nil {
		log.Warn().Err(err).Msg("metrics client initialization failed, metrics will be unavailable")
	}

	log.Debug().Str("command", cmd.Name()).Str("strategy", cfg.Model.Strategy).Msg("configuration loaded")
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
