package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wentf9/commkit/internal/toolkit"
)

type SmsOptions struct {
	To      string
	Message string
}

func NewCmdSms() *cobra.Command {
	o := &SmsOptions{}
	cmd := &cobra.Command{
		Use:   "sms <phone> <message...>",
		Short: "通过 Twilio 发送短信",
		Long: `通过 Twilio 发送短信, 发送方号码为 TWILIO_PHONE。
用法示例:
ckit sms +919800000000 "服务器已重启"
ckit sms --to +15551234567 --message "hi"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.Complete(args)
			if err := o.Validate(); err != nil {
				return fmt.Errorf("参数错误: %v", err)
			}
			return o.Run(cmd)
		},
	}
	cmd.Flags().StringVar(&o.To, "to", "", "接收方手机号 (例如 +91...)")
	cmd.Flags().StringVarP(&o.Message, "message", "m", "", "短信内容")
	return cmd
}

func (o *SmsOptions) Complete(args []string) {
	o.To, o.Message = recipientAndText(o.To, o.Message, args)
}

func (o *SmsOptions) Validate() error {
	if o.To == "" {
		return errors.New("未提供接收方号码")
	}
	return nil
}

func (o *SmsOptions) Run(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	m, err := toolkit.New(cfg).Messenger()
	if err != nil {
		return err
	}
	r, err := m.SendSMS(cmd.Context(), o.To, o.Message)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ SMS sent! SID: %s\n", r.SID)
	return nil
}

// recipientAndText flag 优先, 否则第一个参数为接收方, 其余参数拼接为正文
func recipientAndText(to, text string, args []string) (string, string) {
	if to == "" && len(args) > 0 {
		to = args[0]
		args = args[1:]
	}
	if text == "" && len(args) > 0 {
		text = strings.Join(args, " ")
	}
	return strings.TrimSpace(to), text
}

func init() {
	rootCmd.AddCommand(NewCmdSms())
}
