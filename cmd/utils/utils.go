package utils

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/term"
)

const (
	ConfigDirName  = ".ckit"
	ConfigFileName = "config.yaml"
	ConfigKeyName  = "key"
	DotEnvFileName = ".env"
)

// ParseAddr 解析 user@host:port 格式的字符串
func ParseAddr(input string) (string, string, uint16) {
	var user, host string = "", ""
	var port uint16 = 0
	if atIndex := strings.Index(input, "@"); atIndex != -1 {
		user = strings.TrimSpace(input[:atIndex])
		input = input[atIndex+1:]
	}
	// 只有一个冒号时才视为端口, 避免误拆 IPv6 地址
	if idx := strings.LastIndex(input, ":"); idx != -1 && strings.Count(input, ":") == 1 {
		port = ParsePort(input[idx+1:])
		input = input[:idx]
	}
	host = strings.Trim(strings.TrimSpace(input), "[]")

	return user, host, port
}

// ParsePort 解析端口字符串
// 如果输入为空字符串或非法，则返回0
func ParsePort(input string) uint16 {
	if input == "" {
		return 0
	}
	port64, err := strconv.ParseUint(input, 10, 16)
	if err != nil {
		return 0
	}
	return uint16(port64)
}

func GetCurrentUser() string {
	currentUser, err := user.Current()
	if err != nil {
		return ""
	}
	return currentUser.Username
}

// GetConfigFilePath 返回 ~/.ckit/config.yaml 和 ~/.ckit/key
func GetConfigFilePath() (configPath, keyPath string) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	dir := filepath.Join(home, ConfigDirName)
	return filepath.Join(dir, ConfigFileName), filepath.Join(dir, ConfigKeyName)
}

// ReadPasswordFromTerminal 从终端安全地读取密码, 提示输出到 stderr
func ReadPasswordFromTerminal(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr) // ReadPassword 不会打印换行符
	if err != nil {
		return "", err
	}
	return string(password), nil
}
