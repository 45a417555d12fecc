package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"linear-board-sync/services"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render the configured Linear view as a static kanban page",
	Long: `Fetch the issues of the configured Linear custom view and write
<output_dir>/index.html, copying any assets alongside it. Meant to be run on a
schedule by CI. With board.refresh_interval_seconds set, it keeps running and
regenerates the page on that interval until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd.Context())
	},
}

func runGenerate(parent context.Context) error {
	config, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if !config.HasAPIKey() {
		return errors.New("LINEAR_API_KEY environment variable is required")
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	linearService := services.NewLinearService(config, logger)
	generator := services.NewBoardGenerator(linearService, config, logger)

	if config.Board.RefreshIntervalSeconds > 0 {
		refresher := services.NewBoardRefresher(generator, time.Duration(config.Board.RefreshIntervalSeconds)*time.Second, logger)
		refresher.Start(ctx)
		<-ctx.Done()
		refresher.Stop()
		logger.Info("Board refresher stopped")
		return nil
	}

	result, err := generator.Generate(ctx)
	if err != nil {
		logger.Error("Board generation failed", zap.String("view", config.Board.ViewName), zap.Error(err))
		return err
	}

	fmt.Printf("Successfully generated %s with %d issues from view '%s'\n", result.OutputPath, result.IssueCount, result.ViewName)
	return nil
}
