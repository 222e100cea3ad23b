package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wentf9/commkit/internal/toolkit"
	"github.com/wentf9/commkit/pkg/mail"
	"github.com/wentf9/commkit/pkg/remote"
	"github.com/wentf9/commkit/pkg/twilio"
)

// 各工具的输入输出, 字段说明会出现在工具的 JSON Schema 中

type SMSInput struct {
	To      string `json:"to" jsonschema:"recipient phone number in E.164 form, e.g. +15551234567"`
	Message string `json:"message" jsonschema:"text to send"`
}

type WhatsAppInput struct {
	To       string `json:"to" jsonschema:"recipient WhatsApp number with country code"`
	Message  string `json:"message" jsonschema:"text, or image caption when media_url is set"`
	MediaURL string `json:"media_url,omitempty" jsonschema:"public URL of a jpg or png image"`
}

type CallInput struct {
	To      string `json:"to" jsonschema:"phone number to call"`
	Message string `json:"message,omitempty" jsonschema:"text spoken when the call is answered"`
}

type Receipt struct {
	SID    string `json:"sid"`
	Status string `json:"status,omitempty"`
}

type EmailInput struct {
	From    string `json:"from" jsonschema:"sender address, also the SMTP login"`
	To      string `json:"to" jsonschema:"recipient address"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type EmailOutput struct {
	Sent bool `json:"sent"`
}

type TelegramInput struct {
	Message string `json:"message" jsonschema:"text sent to the configured chat"`
}

type TelegramOutput struct {
	MessageID int   `json:"message_id"`
	ChatID    int64 `json:"chat_id"`
}

type RemoteInput struct {
	Host     string `json:"host" jsonschema:"IP address or hostname, optionally host:port"`
	Port     int    `json:"port,omitempty" jsonschema:"SSH port, defaults to 22"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	KeyPath  string `json:"key_path,omitempty" jsonschema:"private key file on the server host"`
	Label    string `json:"label" jsonschema:"one of: date, cal, ls, ifconfig, adduser, mkdir, gedit, cd / && ls"`
	Extra    string `json:"extra,omitempty" jsonschema:"argument for adduser, mkdir and gedit"`
}

type RemoteOutput struct {
	Command    string `json:"command"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitStatus int    `json:"exit_status"`
}

// New 注册全部工具; 动作失败作为 IsError 的工具结果返回, 不是协议错误
func New(tk *toolkit.Toolkit, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "commkit", Version: version}, nil)
	h := handlers{tk: tk}

	mcp.AddTool(server, &mcp.Tool{Name: "send_sms", Description: "Send an SMS through Twilio"}, h.sendSMS)
	mcp.AddTool(server, &mcp.Tool{Name: "send_whatsapp", Description: "Send a WhatsApp message, optionally with an image"}, h.sendWhatsApp)
	mcp.AddTool(server, &mcp.Tool{Name: "send_email", Description: "Send a plain-text email over SMTP"}, h.sendEmail)
	mcp.AddTool(server, &mcp.Tool{Name: "send_telegram", Description: "Send a message to the configured Telegram chat"}, h.sendTelegram)
	mcp.AddTool(server, &mcp.Tool{Name: "run_remote_command", Description: "Run one whitelisted command on a Linux host over SSH"}, h.runRemote)
	mcp.AddTool(server, &mcp.Tool{Name: "make_call", Description: "Place a phone call that speaks a message"}, h.makeCall)
	return server
}

// Run 通过 stdio 提供服务, 直到客户端断开或 ctx 取消
func Run(ctx context.Context, tk *toolkit.Toolkit, version string) error {
	return New(tk, version).Run(ctx, &mcp.StdioTransport{})
}

type handlers struct {
	tk *toolkit.Toolkit
}

func (h handlers) sendSMS(ctx context.Context, _ *mcp.CallToolRequest, in SMSInput) (*mcp.CallToolResult, Receipt, error) {
	m, err := h.tk.Messenger()
	if err != nil {
		return nil, Receipt{}, err
	}
	r, err := m.SendSMS(ctx, in.To, in.Message)
	return nil, receipt(r), err
}

func (h handlers) sendWhatsApp(ctx context.Context, _ *mcp.CallToolRequest, in WhatsAppInput) (*mcp.CallToolResult, Receipt, error) {
	m, err := h.tk.Messenger()
	if err != nil {
		return nil, Receipt{}, err
	}
	r, err := m.SendWhatsApp(ctx, in.To, in.Message, in.MediaURL)
	return nil, receipt(r), err
}

func (h handlers) makeCall(ctx context.Context, _ *mcp.CallToolRequest, in CallInput) (*mcp.CallToolResult, Receipt, error) {
	m, err := h.tk.Messenger()
	if err != nil {
		return nil, Receipt{}, err
	}
	r, err := m.Call(ctx, in.To, in.Message)
	return nil, receipt(r), err
}

func (h handlers) sendEmail(ctx context.Context, _ *mcp.CallToolRequest, in EmailInput) (*mcp.CallToolResult, EmailOutput, error) {
	m, err := h.tk.Mailer()
	if err != nil {
		return nil, EmailOutput{}, err
	}
	err = m.Send(ctx, mail.Message{From: in.From, To: in.To, Subject: in.Subject, Body: in.Body})
	if err != nil {
		return nil, EmailOutput{}, err
	}
	return nil, EmailOutput{Sent: true}, nil
}

func (h handlers) sendTelegram(ctx context.Context, _ *mcp.CallToolRequest, in TelegramInput) (*mcp.CallToolResult, TelegramOutput, error) {
	n, err := h.tk.Notifier()
	if err != nil {
		return nil, TelegramOutput{}, err
	}
	r, err := n.Send(ctx, in.Message)
	return nil, TelegramOutput{MessageID: r.MessageID, ChatID: r.ChatID}, err
}

func (h handlers) runRemote(ctx context.Context, _ *mcp.CallToolRequest, in RemoteInput) (*mcp.CallToolResult, RemoteOutput, error) {
	res, err := h.tk.Runner.Run(ctx, remote.Request{
		Host:     in.Host,
		Port:     in.Port,
		Username: in.Username,
		Password: in.Password,
		KeyPath:  in.KeyPath,
		Label:    in.Label,
		Extra:    in.Extra,
	})
	if err != nil {
		return nil, RemoteOutput{}, err
	}
	return nil, RemoteOutput{
		Command:    res.Command,
		Stdout:     res.Stdout,
		Stderr:     res.Stderr,
		ExitStatus: res.ExitStatus,
	}, nil
}

func receipt(r twilio.Receipt) Receipt {
	return Receipt{SID: r.SID, Status: r.Status}
}
