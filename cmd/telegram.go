package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wentf9/commkit/internal/toolkit"
)

func NewCmdTelegram() *cobra.Command {
	return &cobra.Command{
		Use:   "telegram <message...>",
		Short: "向配置的 Telegram 会话发送消息",
		Long: `通过 Bot API 向 TELEGRAM_CHAT_ID 发送消息, 会话可以是数字 ID 或 @频道名。
用法示例:
ckit telegram "部署完成"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			n, err := toolkit.New(cfg).Notifier()
			if err != nil {
				return err
			}
			r, err := n.Send(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Message sent! ID: %d\n", r.MessageID)
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(NewCmdTelegram())
}
