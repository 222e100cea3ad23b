package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/wentf9/commkit/cmd/utils"
	"github.com/wentf9/commkit/global"
	"github.com/wentf9/commkit/internal/toolkit"
	"github.com/wentf9/commkit/pkg/remote"
	logutil "github.com/wentf9/commkit/utils"
)

type RunOptions struct {
	Host       string
	Port       uint16
	User       string
	Password   string
	KeyFile    string
	KeyPass    string
	Label      string
	Extra      string
	KnownHosts string
	Insecure   bool
	RawExtra   bool
	Timeout    time.Duration
	List       bool
	args       []string
}

func NewRunOptions() *RunOptions {
	return &RunOptions{}
}

func NewCmdRun() *cobra.Command {
	o := NewRunOptions()
	cmd := &cobra.Command{
		Use:   "run [user@]host[:port] <command> [extra]",
		Short: "通过SSH在远程主机上执行一条白名单命令",
		Long: `通过SSH在远程主机上执行一条白名单命令,每次执行建立一个新连接,执行完毕后关闭。
可选命令: date, cal, ls, ifconfig, adduser, mkdir, gedit, "cd / && ls"
adduser/mkdir/gedit 需要额外参数(用户名/目录/文件名)。
用法示例:
ckit run root@10.0.0.5 date
ckit run root@10.0.0.5:2222 mkdir backups
ckit run -H 10.0.0.5 -u root "cd / && ls"
ckit run --list

标准输出与标准错误分别显示,任意一个为空时不显示。
如果未通过 -w 或 -i 提供凭据,将从终端读取密码。
默认按 ~/.ssh/known_hosts 校验主机密钥。`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.Complete(cmd, args)
			if o.List {
				return o.PrintLabels(cmd.OutOrStdout())
			}
			if err := o.Validate(); err != nil {
				return fmt.Errorf("参数错误: %v", err)
			}
			return o.Run(cmd)
		},
	}
	cmd.Flags().StringVarP(&o.Host, "host", "H", "", "目标主机")
	cmd.Flags().Uint16VarP(&o.Port, "port", "P", 0, "SSH端口")
	cmd.Flags().StringVarP(&o.User, "user", "u", "", "SSH用户名")
	cmd.Flags().StringVarP(&o.Password, "password", "w", "", "SSH密码")
	cmd.Flags().StringVarP(&o.KeyFile, "key", "i", "", "SSH私钥文件路径")
	cmd.Flags().StringVarP(&o.KeyPass, "key_pass", "W", "", "SSH私钥密码")
	cmd.Flags().StringVar(&o.KnownHosts, "known-hosts", "", "known_hosts 文件路径")
	cmd.Flags().BoolVar(&o.Insecure, "insecure-accept-host-key", false, "不校验主机密钥(仅限可信网络)")
	cmd.Flags().BoolVar(&o.RawExtra, "raw-extra", false, "额外参数不加引号直接拼接进命令")
	cmd.Flags().DurationVarP(&o.Timeout, "timeout", "t", 0, "整次执行的超时时间, 0 表示不限时")
	cmd.Flags().BoolVarP(&o.List, "list", "l", false, "列出可选命令")
	cmd.MarkFlagsMutuallyExclusive("password", "key")
	return cmd
}

func (o *RunOptions) Complete(cmd *cobra.Command, args []string) {
	o.args = args
	rest := args
	if o.Host == "" && len(rest) > 0 {
		u, h, p := utils.ParseAddr(rest[0])
		o.Host = h
		if o.User == "" {
			o.User = u
		}
		if o.Port == 0 {
			o.Port = p
		}
		rest = rest[1:]
	}
	if len(rest) > 0 {
		o.Label = rest[0]
	}
	if len(rest) > 1 {
		o.Extra = strings.Join(rest[1:], " ")
	}
}

func (o *RunOptions) Validate() error {
	if o.Host == "" {
		return errors.New("未提供主机地址")
	}
	if o.Label == "" {
		return errors.New("未指定要执行的命令, 使用 --list 查看可选命令")
	}
	if _, ok := remote.Lookup(o.Label); !ok {
		return fmt.Errorf("不支持的命令 %q, 使用 --list 查看可选命令", o.Label)
	}
	if o.User == "" {
		o.User = utils.GetCurrentUser()
	}
	return nil
}

func (o *RunOptions) PrintLabels(w io.Writer) error {
	for _, spec := range remote.Specs() {
		if spec.Slot {
			fmt.Fprintf(w, "%-12s %s <extra>\n", spec.Label, spec.Template)
			continue
		}
		fmt.Fprintf(w, "%-12s %s\n", spec.Label, spec.Template)
	}
	return nil
}

func (o *RunOptions) Run(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if o.KnownHosts != "" {
		cfg.SSH.KnownHosts = o.KnownHosts
	}
	if o.Insecure {
		cfg.SSH.InsecureHostKey = true
	}
	if o.RawExtra {
		cfg.SSH.RawExtra = true
	}
	if o.Timeout > 0 {
		cfg.SSH.CommandTimeout = o.Timeout
	}

	if o.Password == "" && o.KeyFile == "" && global.IsTerminal {
		pass, err := utils.ReadPasswordFromTerminal(fmt.Sprintf("%s@%s 的密码: ", o.User, o.Host))
		if err != nil {
			return err
		}
		o.Password = pass
	}

	logger := logutil.Logger.Component("run")
	dispatcher := toolkit.NewDispatcher(cfg.SSH, remote.WithObserver(func(from, to remote.State) {
		logger.Debug("state", "from", from, "to", to)
	}))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	req := remote.Request{
		Host:       o.Host,
		Port:       int(o.Port),
		Username:   o.User,
		Password:   o.Password,
		KeyPath:    o.KeyFile,
		Passphrase: o.KeyPass,
		Label:      o.Label,
		Extra:      o.Extra,
	}
	o.Password = ""

	done := startSpinner(fmt.Sprintf("正在 %s 上执行 %s", o.Host, o.Label))
	res, err := dispatcher.Run(ctx, req)
	done()
	if err != nil {
		return describeRemoteError(err)
	}

	if res.Stdout != "" {
		fmt.Fprintln(cmd.OutOrStdout(), "✅ Output:")
		fmt.Fprint(cmd.OutOrStdout(), ensureNewline(res.Stdout))
	}
	if res.Stderr != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "❌ Error:")
		fmt.Fprint(cmd.ErrOrStderr(), ensureNewline(res.Stderr))
	}
	if res.ExitStatus != 0 {
		return fmt.Errorf("远程命令退出码 %d", res.ExitStatus)
	}
	return nil
}

// describeRemoteError 按错误类型给出提示
func describeRemoteError(err error) error {
	var connErr *remote.ConnectError
	var execErr *remote.ExecError
	var canceled *remote.CanceledError
	switch {
	case errors.As(err, &connErr):
		return fmt.Errorf("SSH 连接失败: %w", err)
	case errors.As(err, &execErr):
		return fmt.Errorf("命令执行失败: %w", err)
	case errors.As(err, &canceled):
		return fmt.Errorf("已取消 (%s 阶段): %w", canceled.State, err)
	default:
		return err
	}
}

// startSpinner stderr 是终端时显示转圈动画, 返回的函数停止并清除动画
func startSpinner(desc string) func() {
	if !global.IsStderrTerminal {
		return func() {}
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	stop := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				_ = bar.Finish()
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()
	return func() {
		close(stop)
		<-finished
	}
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

func init() {
	rootCmd.AddCommand(NewCmdRun())
}
