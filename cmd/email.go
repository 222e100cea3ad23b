package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wentf9/commkit/global"
	"github.com/wentf9/commkit/internal/toolkit"
	"github.com/wentf9/commkit/pkg/mail"
)

type EmailOptions struct {
	From    string
	To      string
	Subject string
	Body    string
}

func NewCmdEmail() *cobra.Command {
	o := &EmailOptions{}
	cmd := &cobra.Command{
		Use:   "email --from <sender> --to <recipient> [body...]",
		Short: "通过 SMTP 发送纯文本邮件",
		Long: `通过 SMTP 发送纯文本邮件, 服务器为 SMTP_HOST:SMTP_PORT (默认 smtp.gmail.com:587),
强制使用 STARTTLS, 以发件人地址和 EMAIL_PASSWORD 登录。
未提供正文且标准输入不是终端时, 从标准输入读取正文。
用法示例:
ckit email --from me@gmail.com --to you@example.com -s "日报" "今天一切正常"
df -h | ckit email --from me@gmail.com --to ops@example.com -s "磁盘"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(); err != nil {
				return fmt.Errorf("参数错误: %v", err)
			}
			return o.Run(cmd)
		},
	}
	cmd.Flags().StringVar(&o.From, "from", "", "发件人地址, 同时作为 SMTP 用户名")
	cmd.Flags().StringVar(&o.To, "to", "", "收件人地址")
	cmd.Flags().StringVarP(&o.Subject, "subject", "s", "", "邮件主题")
	cmd.Flags().StringVarP(&o.Body, "body", "b", "", "邮件正文")
	return cmd
}

func (o *EmailOptions) Complete(cmd *cobra.Command, args []string) error {
	if o.Body == "" && len(args) > 0 {
		o.Body = strings.Join(args, " ")
	}
	if o.Body == "" && !global.IsTerminal {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("读取标准输入失败: %w", err)
		}
		o.Body = string(data)
	}
	return nil
}

func (o *EmailOptions) Validate() error {
	if o.From == "" {
		return errors.New("未提供发件人 --from")
	}
	if o.To == "" {
		return errors.New("未提供收件人 --to")
	}
	return nil
}

func (o *EmailOptions) Run(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	m, err := toolkit.New(cfg).Mailer()
	if err != nil {
		return err
	}
	err = m.Send(cmd.Context(), mail.Message{From: o.From, To: o.To, Subject: o.Subject, Body: o.Body})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✅ Email sent successfully!")
	return nil
}

func init() {
	rootCmd.AddCommand(NewCmdEmail())
}
