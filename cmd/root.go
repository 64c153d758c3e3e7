// Package cmd はcamhubのコマンドラインインターフェースを実装する
package cmd

import (
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"camhub/internal/camera/local"
	"camhub/internal/camera/pipeline"
	"camhub/internal/config"
	"camhub/internal/logging"
	"camhub/internal/metrics"
	"camhub/internal/source"
)

// newLocalDriver は設定に応じたローカルデバイスのドライバーを作成する
// テストではモックに差し替える
var newLocalDriver = func(cfg config.LocalConfig) (local.Driver, error) {
	if cfg.Driver == config.DriverNative {
		return local.NewNativeDriver(cfg.DevicePattern)
	}
	return local.NewCtlDriver(cfg.DevicePattern, cfg.CommandTimeout), nil
}

// newPipelineProber はパイプラインの利用可能性を確認するProberを作成する
var newPipelineProber = func(cfg config.PipelineConfig) pipeline.Prober {
	return pipeline.NewExecProber(cfg.FFmpegPath)
}

// app はコマンド実行に必要な依存関係
type app struct {
	config  *config.Config
	logger  *zap.Logger
	metrics *metrics.Collector
	manager *source.Manager
}

// newApp はフラグと設定ファイルから依存関係を組み立てる
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(lo.Must(cmd.Flags().GetString("config")))
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = lo.Must(cmd.Flags().GetString("log-level"))
	}

	logger, err := logging.New(cfg.LoggingConfig())
	if err != nil {
		return nil, err
	}

	driver, err := newLocalDriver(cfg.Local)
	if err != nil {
		return nil, fmt.Errorf("ドライバーの初期化に失敗: %w", err)
	}

	collector := metrics.NewCollector(logger)
	registry := source.NewRegistry(
		local.NewDiscovery(driver, logger),
		pipeline.NewDiscovery(pipeline.Config{
			FFmpegPath: cfg.Pipeline.FFmpegPath,
			Patterns:   cfg.Pipeline.Patterns,
			Displays:   cfg.Pipeline.Displays,
		}, newPipelineProber(cfg.Pipeline), logger),
		cfg.Redirect.Aliases,
		logger,
		collector,
	)

	return &app{
		config:  cfg,
		logger:  logger,
		metrics: collector,
		manager: source.NewManager(registry, logger, collector),
	}, nil
}

// newRootCmd はコマンドツリーを作成する
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "camhub",
		Short:         "ローカルカメラ、ffmpegパイプライン、エイリアスを1つの名前空間で操作する",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "設定ファイルのパス (未指定なら $"+config.ConfigPathEnv+")")
	rootCmd.PersistentFlags().String("log-level", "", "ログレベル (debug, info, warn, error)")

	rootCmd.AddCommand(
		newServeCmd(),
		newListCmd(),
		newControlsCmd(),
		newGetCmd(),
		newSetCmd(),
		newResetCmd(),
		newCommandCmd(),
	)

	return rootCmd
}

// Execute はコマンドを実行する
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "エラー:", err)
		os.Exit(1)
	}
}
