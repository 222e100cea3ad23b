package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wentf9/commkit/pkg/probe"
)

// probeCmd represents the probe command
var probeCmd = &cobra.Command{
	Use:   "probe <ip> [port]",
	Short: "执行远程命令前检查主机是否可达",
	Long: `该命令有两种工作模式:
1. ICMP Ping (1个参数):
   当只提供一个IP地址或主机名时,它会发送ICMP请求来测试网络连通性。
   在 Linux/macOS 上使用 --privileged 需要 root 权限。
   示例: ckit probe 10.0.0.5

2. TCP端口检查 (2个参数):
   当提供IP地址/主机名和端口号时,它会尝试建立TCP连接来判断端口是否开放。
   示例: ckit probe 10.0.0.5 22`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ip := args[0]
		out := cmd.OutOrStdout()

		// 情况2: 提供了IP和端口，进行TCP端口检查
		if len(args) == 2 {
			port, err := strconv.Atoi(args[1])
			if err != nil || port <= 0 || port > 65535 {
				return fmt.Errorf("无效的端口: %s", args[1])
			}
			timeout, _ := cmd.Flags().GetDuration("timeout")
			fmt.Fprintf(out, "正在测试到 %s:%d 的TCP连接...\n", ip, port)
			res, err := probe.TCP(cmd.Context(), ip, port, timeout)
			if err != nil {
				return err
			}
			if !res.Open {
				fmt.Fprintf(out, "主机 %s 的端口 %d 已关闭或被过滤: %s\n", ip, port, res.Reason)
				return nil // 命令本身执行成功，所以不返回错误
			}
			fmt.Fprintf(out, "主机 %s 的端口 %d 是开放的! (%v)\n", ip, port, res.Latency.Round(time.Millisecond))
			return nil
		}

		// 情况1: 只提供了IP，进行ICMP ping
		count, _ := cmd.Flags().GetInt("count")
		privileged, _ := cmd.Flags().GetBool("privileged")
		fmt.Fprintf(out, "正在通过ICMP Ping %s...\n", ip)
		stats, err := probe.ICMP(cmd.Context(), ip, count, privileged)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n--- %s 的 ping 统计信息 ---\n", stats.Addr)
		fmt.Fprintf(out, "%d 个包已发送, %d 个包已接收, %v%% 包丢失\n",
			stats.Sent, stats.Received, stats.Loss)
		fmt.Fprintf(out, "往返行程 最小/平均/最大/标准差 = %v/%v/%v/%v\n",
			stats.MinRtt, stats.AvgRtt, stats.MaxRtt, stats.StdDevRtt)
		return nil
	},
}

func init() {
	probeCmd.Flags().IntP("count", "n", probe.DefaultCount, "ICMP 请求次数")
	probeCmd.Flags().Bool("privileged", true, "使用 raw socket 发送 ICMP")
	probeCmd.Flags().Duration("timeout", probe.DefaultTCPTimeout, "TCP 连接超时")
	rootCmd.AddCommand(probeCmd)
}
