package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wentf9/commkit/cmd/utils"
	"github.com/wentf9/commkit/cmd/version"
	"github.com/wentf9/commkit/pkg/config"
	logutil "github.com/wentf9/commkit/utils"
)

var configFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ckit [command] [flags]",
	Short: "ckit(commkit)是一个通信与远程运维工具箱",
	Long: `ckit(commkit)把常用的通信与运维动作放在一个工具里:
发送短信、WhatsApp、邮件、Telegram 消息,拨打语音电话,
以及在远程 Linux 主机上执行白名单内的命令。
既可以作为命令行使用,也可以通过 serve 启动浏览器界面,
或通过 mcp 以 MCP 工具的形式提供给 AI 客户端。

凭据从当前目录的 .env、~/.ckit/config.yaml 和环境变量读取,
环境变量优先。`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			version.PrintFullVersion()
			return nil
		}
		return cmd.Help()
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debugFlag, _ := cmd.Flags().GetBool("debug")
		if debugFlag {
			logutil.Logger.SetLogLevel("debug")
			logutil.Logger.Debug("调试模式已开启")
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig 加载 .env、配置文件和环境变量
func loadConfig() (config.Config, error) {
	path, keyPath := configPaths()
	cfg, err := config.NewDefaultStore(path, keyPath, utils.DotEnvFileName).Load()
	if err != nil {
		return cfg, fmt.Errorf("加载配置失败: %w", err)
	}
	return cfg, nil
}

func configPaths() (string, string) {
	path, keyPath := utils.GetConfigFilePath()
	if configFile != "" {
		path = configFile
	}
	return path, keyPath
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "显示版本信息")
	rootCmd.PersistentFlags().Bool("debug", false, "开启调试模式")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径 (默认 ~/.ckit/config.yaml)")
}
