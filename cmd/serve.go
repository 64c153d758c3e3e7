package cmd

import (
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"camhub/internal/server"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "HTTP APIサーバーを起動する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			// コマンドラインオプションで設定を上書き
			if cmd.Flags().Changed("host") {
				a.config.Server.Host = lo.Must(cmd.Flags().GetString("host"))
			}
			if cmd.Flags().Changed("port") {
				a.config.Server.Port = lo.Must(cmd.Flags().GetInt("port"))
			}
			if err := a.config.Validate(); err != nil {
				return err
			}

			srv := server.New(a.config, a.manager, a.metrics, a.logger)
			return srv.Start(cmd.Context())
		},
	}

	serveCmd.Flags().String("host", "", "サーバーのホスト (デフォルト: 0.0.0.0)")
	serveCmd.Flags().Int("port", 0, "サーバーのポート (デフォルト: 8080)")

	return serveCmd
}
