package dashboard

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wentf9/commkit/internal/toolkit"
	"github.com/wentf9/commkit/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

const shutdownTimeout = 5 * time.Second

// Server 浏览器界面: 左侧选择工具, 右侧表单提交后在同一页面显示结果
type Server struct {
	tk      *toolkit.Toolkit
	router  *gin.Engine
	metrics *metrics
	logger  *slog.Logger
	started time.Time
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func New(tk *toolkit.Toolkit, opts ...Option) *Server {
	s := &Server{
		tk:      tk,
		metrics: newMetrics(),
		logger:  utils.Logger.Component("dashboard"),
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))
	r.Use(requestMetrics(s.metrics))
	r.Use(crossOrigin(s.logger))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})
	r.MaxMultipartMemory = 8 << 20

	tmpl := template.Must(template.New("").Option("missingkey=zero").ParseFS(templateFS, "templates/*.html"))
	r.SetHTMLTemplate(tmpl)

	s.router = r
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/", s.index)
	s.router.POST("/sms", s.sendSMS)
	s.router.POST("/whatsapp", s.sendWhatsApp)
	s.router.POST("/email", s.sendEmail)
	s.router.POST("/telegram", s.sendTelegram)
	s.router.POST("/ssh", s.runRemote)
	s.router.POST("/call", s.makeCall)
	s.router.GET("/media/:id", s.serveMedia)

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(s.started).String(),
		})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe 阻塞直到 ctx 取消, 随后优雅关闭
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if s.tk.Media != nil {
		go s.sweepMedia(ctx)
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) sweepMedia(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.tk.Media.Sweep(); n > 0 {
				s.logger.Debug("expired media removed", "count", n)
			}
		}
	}
}
