package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/wentf9/commkit/cmd/version"
	"github.com/wentf9/commkit/internal/mcpserver"
	"github.com/wentf9/commkit/internal/toolkit"
)

func NewCmdMcp() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "以 MCP 服务器方式运行 (stdio)",
		Long: `通过标准输入输出提供 MCP 工具:
send_sms, send_whatsapp, send_email, send_telegram, run_remote_command, make_call
日志输出到 stderr, 不会干扰协议数据。`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return mcpserver.Run(ctx, toolkit.New(cfg), version.String())
		},
	}
}

func init() {
	rootCmd.AddCommand(NewCmdMcp())
}
