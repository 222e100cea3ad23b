package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wentf9/commkit/cmd/utils"
	"github.com/wentf9/commkit/cmd/version"
	"github.com/wentf9/commkit/pkg/config"
	"github.com/wentf9/commkit/pkg/crypto"
)

func NewCmdConfig() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "管理配置文件",
	}
	cmd.AddCommand(newCmdConfigInit(), newCmdConfigEncrypt())
	return cmd
}

func newCmdConfigInit() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "生成配置文件模板",
		Long: `在 ~/.ckit/config.yaml (或 --config 指定的位置) 生成配置文件模板。
当前环境变量和 .env 中的值会写入模板, 敏感字段以 ENC: 形式加密保存。`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, keyPath := configPaths()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("配置文件 %s 已存在, 使用 --force 覆盖", path)
			}
			store := config.NewDefaultStore(path, keyPath, utils.DotEnvFileName)
			cfg, err := store.Load()
			if err != nil {
				return err
			}
			if err := store.Save(cfg); err != nil {
				return fmt.Errorf("保存配置文件失败: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "配置文件已写入 %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "覆盖已有配置文件")
	return cmd
}

func newCmdConfigEncrypt() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt [value]",
		Short: "加密一个敏感值, 输出可写入配置文件的 ENC: 字符串",
		Long: `使用 ~/.ckit/key 加密一个值。未提供参数时从终端读取, 避免出现在 shell 历史中。
用法示例:
ckit config encrypt
ckit config encrypt my-auth-token`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value string
			if len(args) == 1 {
				value = args[0]
			} else {
				v, err := utils.ReadPasswordFromTerminal("请输入要加密的值: ")
				if err != nil {
					return err
				}
				value = v
			}
			if value == "" {
				return errors.New("值不能为空")
			}
			_, keyPath := configPaths()
			key, err := crypto.LoadOrGenerateKey(keyPath)
			if err != nil {
				return err
			}
			c, err := crypto.NewCrypter(key)
			if err != nil {
				return err
			}
			sealed, err := c.Seal(value)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sealed)
			return nil
		},
	}
}

func NewCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本信息",
		Run: func(cmd *cobra.Command, args []string) {
			version.PrintFullVersion()
		},
	}
}

func init() {
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdVersion())
}
