package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wentf9/commkit/internal/dashboard"
	"github.com/wentf9/commkit/internal/toolkit"
)

func NewCmdServe() *cobra.Command {
	var addr, baseURL string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动浏览器界面",
		Long: `启动浏览器界面, 左侧选择工具, 右侧填写表单后执行并显示结果。
默认只监听 127.0.0.1:8501, 界面没有登录认证, 请勿直接暴露到公网。
发送 WhatsApp 图片需要设置 PUBLIC_BASE_URL, 使 Twilio 可以访问 /media/<id>。
同时提供 /healthz 和 /metrics (Prometheus)。`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Dashboard.ListenAddr = addr
			}
			if baseURL != "" {
				cfg.Dashboard.PublicBaseURL = baseURL
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.ErrOrStderr(), "dashboard: http://%s\n", cfg.Dashboard.ListenAddr)
			return dashboard.New(toolkit.New(cfg)).ListenAndServe(ctx, cfg.Dashboard.ListenAddr)
		},
	}
	cmd.Flags().StringVarP(&addr, "listen", "l", "", "监听地址 (默认 LISTEN_ADDR 或 127.0.0.1:8501)")
	cmd.Flags().StringVar(&baseURL, "public-url", "", "公开访问地址, 用于生成图片 URL")
	return cmd
}

func init() {
	rootCmd.AddCommand(NewCmdServe())
}
