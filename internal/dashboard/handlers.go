package dashboard

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wentf9/commkit/internal/toolkit"
	"github.com/wentf9/commkit/pkg/mail"
	"github.com/wentf9/commkit/pkg/media"
	"github.com/wentf9/commkit/pkg/remote"
	"github.com/wentf9/commkit/pkg/twilio"
)

var toolTitles = map[toolkit.Tool]string{
	toolkit.ToolSMS:      "Send SMS",
	toolkit.ToolWhatsApp: "WhatsApp",
	toolkit.ToolEmail:    "Email",
	toolkit.ToolTelegram: "Telegram",
	toolkit.ToolSSH:      "Linux Remote SSH",
	toolkit.ToolCall:     "Twilio Call",
}

var errNoBaseURL = errors.New("PUBLIC_BASE_URL is required to send images")

type toolView struct {
	Name  toolkit.Tool
	Title string
}

type panel struct {
	Kind  string // success | error | info
	Title string
	Text  string
	Code  bool
}

type page struct {
	Tools    []toolView
	Active   toolkit.Tool
	Commands []remote.Label
	Form     map[string]string
	Panels   []panel
}

func newPage(active toolkit.Tool) *page {
	p := &page{
		Active:   active,
		Commands: remote.Labels(),
		Form:     map[string]string{},
	}
	for _, t := range toolkit.Tools {
		p.Tools = append(p.Tools, toolView{Name: t, Title: toolTitles[t]})
	}
	if active == toolkit.ToolCall {
		p.Form["message"] = twilio.DefaultCallMessage
	}
	return p
}

// keep 回显表单, 密码字段不回显
func (p *page) keep(c *gin.Context, fields ...string) {
	for _, f := range fields {
		p.Form[f] = c.PostForm(f)
	}
}

func (s *Server) index(c *gin.Context) {
	active := toolkit.Tool(c.DefaultQuery("tool", string(toolkit.ToolSMS)))
	if _, ok := toolTitles[active]; !ok {
		active = toolkit.ToolSMS
	}
	c.HTML(http.StatusOK, "index.html", newPage(active))
}

// finish 记录指标并渲染页面, 失败时追加错误面板
func (s *Server) finish(c *gin.Context, p *page, start time.Time, err error) {
	s.metrics.recordAction(string(p.Active), err == nil, time.Since(start))
	status := http.StatusOK
	if err != nil {
		status = http.StatusUnprocessableEntity
		p.Panels = append(p.Panels, panel{Kind: "error", Title: "Error", Text: err.Error()})
		s.logger.Warn("action failed", "tool", p.Active, "error", err)
	}
	c.HTML(status, "index.html", p)
}

func (s *Server) sendSMS(c *gin.Context) {
	start := time.Now()
	p := newPage(toolkit.ToolSMS)
	p.keep(c, "to", "message")

	err := func() error {
		m, err := s.tk.Messenger()
		if err != nil {
			return err
		}
		r, err := m.SendSMS(c.Request.Context(), p.Form["to"], p.Form["message"])
		if err != nil {
			return err
		}
		p.Panels = append(p.Panels, panel{Kind: "success", Title: "SMS sent! SID: " + r.SID})
		return nil
	}()
	s.finish(c, p, start, err)
}

func (s *Server) sendWhatsApp(c *gin.Context) {
	start := time.Now()
	p := newPage(toolkit.ToolWhatsApp)
	p.keep(c, "to", "message")

	err := func() error {
		m, err := s.tk.Messenger()
		if err != nil {
			return err
		}
		id, mediaURL, err := s.storeUpload(c)
		if err != nil {
			return err
		}
		r, err := m.SendWhatsApp(c.Request.Context(), p.Form["to"], p.Form["message"], mediaURL)
		if err != nil {
			if id != "" {
				s.tk.Media.Delete(id)
			}
			return err
		}
		title := "Message sent! SID: " + r.SID
		if mediaURL != "" {
			title = "Image sent! SID: " + r.SID
		}
		p.Panels = append(p.Panels, panel{Kind: "success", Title: title})
		return nil
	}()
	s.finish(c, p, start, err)
}

// storeUpload 保存上传的图片并返回 ID 和公开 URL, 未上传时返回空串
func (s *Server) storeUpload(c *gin.Context) (string, string, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("read upload: %w", err)
	}
	if s.tk.BaseURL == "" {
		return "", "", errNoBaseURL
	}
	f, err := fh.Open()
	if err != nil {
		return "", "", fmt.Errorf("read upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, media.MaxSize+1))
	if err != nil {
		return "", "", fmt.Errorf("read upload: %w", err)
	}
	item, err := s.tk.Media.Put(data)
	if err != nil {
		return "", "", err
	}
	return item.ID, media.URL(s.tk.BaseURL, item.ID), nil
}

func (s *Server) sendEmail(c *gin.Context) {
	start := time.Now()
	p := newPage(toolkit.ToolEmail)
	p.keep(c, "from", "to", "subject", "body")

	err := func() error {
		m, err := s.tk.Mailer()
		if err != nil {
			return err
		}
		err = m.Send(c.Request.Context(), mail.Message{
			From:    p.Form["from"],
			To:      p.Form["to"],
			Subject: p.Form["subject"],
			Body:    p.Form["body"],
		})
		if err != nil {
			return err
		}
		p.Panels = append(p.Panels, panel{Kind: "success", Title: "Email sent successfully!"})
		return nil
	}()
	s.finish(c, p, start, err)
}

func (s *Server) sendTelegram(c *gin.Context) {
	start := time.Now()
	p := newPage(toolkit.ToolTelegram)
	p.keep(c, "message")

	err := func() error {
		n, err := s.tk.Notifier()
		if err != nil {
			return err
		}
		r, err := n.Send(c.Request.Context(), p.Form["message"])
		if err != nil {
			return err
		}
		p.Panels = append(p.Panels, panel{Kind: "success", Title: fmt.Sprintf("Message sent! ID: %d", r.MessageID)})
		return nil
	}()
	s.finish(c, p, start, err)
}

func (s *Server) runRemote(c *gin.Context) {
	start := time.Now()
	p := newPage(toolkit.ToolSSH)
	p.keep(c, "username", "host", "label", "extra")

	err := func() error {
		req := remote.Request{
			Host:     strings.TrimSpace(p.Form["host"]),
			Username: strings.TrimSpace(p.Form["username"]),
			Password: c.PostForm("password"),
			Label:    p.Form["label"],
			Extra:    p.Form["extra"],
		}
		if port := c.PostForm("port"); port != "" {
			n, err := strconv.ParseUint(strings.TrimSpace(port), 10, 16)
			if err != nil || n == 0 {
				return fmt.Errorf("invalid port %q", port)
			}
			req.Port = int(n)
		}
		res, err := s.tk.Runner.Run(c.Request.Context(), req)
		if err != nil {
			return err
		}
		p.Panels = append(p.Panels, resultPanels(res)...)
		return nil
	}()
	s.finish(c, p, start, err)
}

// resultPanels stdout 和 stderr 各自非空时才显示
func resultPanels(res remote.Result) []panel {
	var panels []panel
	if res.Stdout != "" {
		panels = append(panels, panel{Kind: "success", Title: "Output:", Text: res.Stdout, Code: true})
	}
	if res.Stderr != "" {
		panels = append(panels, panel{Kind: "error", Title: "Error:", Text: res.Stderr, Code: true})
	}
	if res.ExitStatus != 0 {
		panels = append(panels, panel{Kind: "info", Title: fmt.Sprintf("Exit status %d", res.ExitStatus)})
	}
	return panels
}

func (s *Server) makeCall(c *gin.Context) {
	start := time.Now()
	p := newPage(toolkit.ToolCall)
	p.keep(c, "to", "message")

	err := func() error {
		m, err := s.tk.Messenger()
		if err != nil {
			return err
		}
		r, err := m.Call(c.Request.Context(), p.Form["to"], p.Form["message"])
		if err != nil {
			return err
		}
		p.Panels = append(p.Panels,
			panel{Kind: "success", Title: "Call started!"},
			panel{Kind: "info", Title: "Call SID: " + r.SID},
		)
		return nil
	}()
	s.finish(c, p, start, err)
}

func (s *Server) serveMedia(c *gin.Context) {
	if s.tk.Media == nil {
		c.Status(http.StatusNotFound)
		return
	}
	item, ok := s.tk.Media.Get(c.Param("id"))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, item.ContentType, item.Data)
}
