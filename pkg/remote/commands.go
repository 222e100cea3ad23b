package remote

import "strings"

// Label 菜单中可选的命令标签
type Label string

const (
	LabelDate     Label = "date"
	LabelCal      Label = "cal"
	LabelLs       Label = "ls"
	LabelIfconfig Label = "ifconfig"
	LabelAddUser  Label = "adduser"
	LabelMkdir    Label = "mkdir"
	LabelGedit    Label = "gedit"
	LabelRootLs   Label = "cd / && ls"
)

// CommandSpec 标签到命令模板的固定映射
// Slot 为 true 时模板后追加一个空格和 extra
type CommandSpec struct {
	Label    Label
	Template string
	Slot     bool
}

// 顺序即菜单顺序
var commandSpecs = [...]CommandSpec{
	{Label: LabelDate, Template: "date"},
	{Label: LabelCal, Template: "cal"},
	{Label: LabelLs, Template: "ls"},
	{Label: LabelIfconfig, Template: "ifconfig"},
	{Label: LabelAddUser, Template: "sudo adduser", Slot: true},
	{Label: LabelMkdir, Template: "mkdir", Slot: true},
	{Label: LabelGedit, Template: "gedit", Slot: true},
	{Label: LabelRootLs, Template: "cd / && ls"},
}

// Specs 返回全部命令定义的副本
func Specs() []CommandSpec {
	out := make([]CommandSpec, len(commandSpecs))
	copy(out, commandSpecs[:])
	return out
}

// Labels 返回全部标签, 按菜单顺序
func Labels() []Label {
	out := make([]Label, 0, len(commandSpecs))
	for _, s := range commandSpecs {
		out = append(out, s.Label)
	}
	return out
}

// Lookup 按标签查找命令定义, 标签需完全匹配
func Lookup(label string) (CommandSpec, bool) {
	for _, s := range commandSpecs {
		if string(s.Label) == label {
			return s, true
		}
	}
	return CommandSpec{}, false
}

// Resolve 生成最终命令, extra 原样拼接, 不做任何转义
// extra 中的 ; && $() 等都会被远端 shell 执行
func (s CommandSpec) Resolve(extra string) string {
	if !s.Slot {
		return s.Template
	}
	return s.Template + " " + extra
}

// ResolveQuoted 生成最终命令, extra 作为单个 shell 参数传递
func (s CommandSpec) ResolveQuoted(extra string) string {
	if !s.Slot {
		return s.Template
	}
	return s.Template + " " + ShellQuote(extra)
}

// ShellQuote 按 POSIX shell 规则用单引号包裹参数
// 只含安全字符时原样返回, 内嵌单引号转义为 '\''
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := strings.IndexFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		}
		switch r {
		case '-', '_', '.', '/', '@', ':', ',', '+', '=':
			return false
		}
		return true
	}) == -1
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
