package global

import (
	"os"

	"golang.org/x/term"
)

var (
	IsTerminal       bool = term.IsTerminal(int(os.Stdin.Fd()))  //是否是交互式环境,false表示可能是管道或重定向
	IsStderrTerminal bool = term.IsTerminal(int(os.Stderr.Fd())) //stderr 是终端时才显示进度动画
)
