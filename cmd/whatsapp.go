package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wentf9/commkit/internal/toolkit"
)

type WhatsAppOptions struct {
	To       string
	Message  string
	MediaURL string
}

func NewCmdWhatsApp() *cobra.Command {
	o := &WhatsAppOptions{}
	cmd := &cobra.Command{
		Use:   "whatsapp <phone> [message...]",
		Short: "通过 Twilio WhatsApp 渠道发送消息或图片",
		Long: `通过 Twilio WhatsApp 渠道立即发送消息。
号码会自动加上 whatsapp: 前缀, 发送方为 TWILIO_WHATSAPP_FROM (未设置时使用 TWILIO_PHONE)。
使用 --media-url 发送图片, 消息内容作为图片说明。图片必须可以被 Twilio 公开访问,
本地图片可以通过 serve 启动的界面上传。
用法示例:
ckit whatsapp +919800000000 "hello"
ckit whatsapp +919800000000 "看这张图" --media-url https://example.com/a.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.Complete(args)
			if err := o.Validate(); err != nil {
				return fmt.Errorf("参数错误: %v", err)
			}
			return o.Run(cmd)
		},
	}
	cmd.Flags().StringVar(&o.To, "to", "", "WhatsApp 号码 (+国家码)")
	cmd.Flags().StringVarP(&o.Message, "message", "m", "", "消息内容")
	cmd.Flags().StringVar(&o.MediaURL, "media-url", "", "图片的公开 URL (jpg/png)")
	return cmd
}

func (o *WhatsAppOptions) Complete(args []string) {
	o.To, o.Message = recipientAndText(o.To, o.Message, args)
}

func (o *WhatsAppOptions) Validate() error {
	if o.To == "" {
		return errors.New("未提供 WhatsApp 号码")
	}
	if o.Message == "" && o.MediaURL == "" {
		return errors.New("消息内容和图片不能同时为空")
	}
	return nil
}

func (o *WhatsAppOptions) Run(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	m, err := toolkit.New(cfg).Messenger()
	if err != nil {
		return err
	}
	r, err := m.SendWhatsApp(cmd.Context(), o.To, o.Message, o.MediaURL)
	if err != nil {
		return err
	}
	if o.MediaURL != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Image sent! SID: %s\n", r.SID)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Message sent! SID: %s\n", r.SID)
	return nil
}

func init() {
	rootCmd.AddCommand(NewCmdWhatsApp())
}
