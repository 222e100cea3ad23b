package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunOptionsComplete(t *testing.T) {
	o := NewRunOptions()
	o.Complete(nil, []string{"alice@10.0.0.5:2222", "mkdir", "a", "b"})
	require.Equal(t, "10.0.0.5", o.Host)
	require.Equal(t, "alice", o.User)
	require.Equal(t, uint16(2222), o.Port)
	require.Equal(t, "mkdir", o.Label)
	require.Equal(t, "a b", o.Extra)
	require.NoError(t, o.Validate())

	// -H 已指定时第一个参数就是命令
	o = NewRunOptions()
	o.Host = "example.com"
	o.User = "bob"
	o.Complete(nil, []string{"cd / && ls"})
	require.Equal(t, "cd / && ls", o.Label)
	require.Empty(t, o.Extra)
	require.NoError(t, o.Validate())
}

func TestRunOptionsValidate(t *testing.T) {
	o := NewRunOptions()
	require.ErrorContains(t, o.Validate(), "主机")

	o.Host = "h"
	require.ErrorContains(t, o.Validate(), "--list")

	o.Label = "rm -rf /"
	require.ErrorContains(t, o.Validate(), "不支持的命令")
}

func TestPrintLabels(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRunOptions().PrintLabels(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 8)
	require.True(t, strings.HasPrefix(lines[0], "date"))
	require.Contains(t, lines[4], "sudo adduser <extra>")
	require.True(t, strings.HasPrefix(lines[7], "cd / && ls"))
}

func TestRecipientAndText(t *testing.T) {
	to, text := recipientAndText("", "", []string{"+15550001", "hello", "world"})
	require.Equal(t, "+15550001", to)
	require.Equal(t, "hello world", text)

	to, text = recipientAndText("+1999", "", []string{"hi"})
	require.Equal(t, "+1999", to)
	require.Equal(t, "hi", text)

	to, text = recipientAndText(" +1 ", "flag", []string{"ignored"})
	require.Equal(t, "+1", to)
	require.Equal(t, "flag", text)
}

func TestEnsureNewline(t *testing.T) {
	require.Equal(t, "a\n", ensureNewline("a"))
	require.Equal(t, "a\n", ensureNewline("a\n"))
}
