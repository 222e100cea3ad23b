package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wentf9/commkit/internal/toolkit"
	"github.com/wentf9/commkit/pkg/twilio"
)

type CallOptions struct {
	To      string
	Message string
}

func NewCmdCall() *cobra.Command {
	o := &CallOptions{}
	cmd := &cobra.Command{
		Use:   "call <phone> [message...]",
		Short: "通过 Twilio 拨打电话并朗读一段文字",
		Long: `通过 Twilio 拨打电话, 接通后朗读消息内容。
未提供消息时朗读默认文案: "` + twilio.DefaultCallMessage + `"
用法示例:
ckit call +15551234567
ckit call +15551234567 "磁盘空间不足, 请尽快处理"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.Complete(args)
			if err := o.Validate(); err != nil {
				return fmt.Errorf("参数错误: %v", err)
			}
			return o.Run(cmd)
		},
	}
	cmd.Flags().StringVar(&o.To, "to", "", "要拨打的号码 (例如 +91...)")
	cmd.Flags().StringVarP(&o.Message, "message", "m", "", "接通后朗读的内容")
	return cmd
}

func (o *CallOptions) Complete(args []string) {
	o.To, o.Message = recipientAndText(o.To, o.Message, args)
}

func (o *CallOptions) Validate() error {
	if o.To == "" {
		return errors.New("未提供号码")
	}
	return nil
}

func (o *CallOptions) Run(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	m, err := toolkit.New(cfg).Messenger()
	if err != nil {
		return err
	}
	r, err := m.Call(cmd.Context(), o.To, o.Message)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✅ Call started!")
	fmt.Fprintf(cmd.OutOrStdout(), "Call SID: %s\n", r.SID)
	return nil
}

func init() {
	rootCmd.AddCommand(NewCmdCall())
}
