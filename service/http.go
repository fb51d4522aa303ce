package service

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/rushteam/fakereview/core"
	"github.com/rushteam/fakereview/pkg/logging"
)

// Server 是推理服务的 HTTP 边界
type Server struct {
	App     *fiber.App
	svc     *Service
	metrics *Metrics
	logger  *slog.Logger
}

// NewServer 挂载路由：
//
//	POST /predict  {"review": "..."} → {"prediction": "REAL|FAKE"}
//	GET  /healthz
//	GET  /model
//	GET  /metrics
func NewServer(svc *Service, metrics *Metrics, logger *slog.Logger) *Server {
	if metrics == nil {
		metrics = NewMetrics()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{svc: svc, metrics: metrics, logger: logger}

	app := fiber.New(fiber.Config{
		AppName: "fakereview",
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal Server Error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}
			return jsonError(c, code, message)
		},
	})
	app.Use(recover.New())
	app.Use(s.accessLog)

	app.Post("/predict", s.Predict)
	app.Get("/healthz", s.Health)
	app.Get("/model", s.Model)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	s.App = app
	return s
}

// Listen 阻塞直到服务退出
func (s *Server) Listen(addr string) error {
	return s.App.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown 优雅关闭
func (s *Server) Shutdown() error {
	return s.App.Shutdown()
}

func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// Predict 处理单条评论的分类请求
func (s *Server) Predict(c fiber.Ctx) error {
	var body map[string]any
	if err := json.Unmarshal(c.Body(), &body); err != nil || body == nil {
		s.metrics.errors.WithLabelValues(ErrorKindValidation).Inc()
		return jsonError(c, fiber.StatusBadRequest, "Invalid JSON")
	}
	review, _ := body["review"].(string)

	start := time.Now()
	label, err := s.svc.Classify(c.Context(), review)
	s.metrics.Observe(label, err, time.Since(start))
	if err != nil {
		if core.IsValidation(err) {
			return jsonError(c, fiber.StatusBadRequest, "Empty review")
		}
		s.logger.Error("prediction failed", "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "Prediction failed: "+err.Error())
	}
	return c.JSON(fiber.Map{"prediction": label.String()})
}

// Health 只要进程在提供服务，产物就已加载完成
func (s *Server) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Model 返回当前产物信息
func (s *Server) Model(c fiber.Ctx) error {
	return c.JSON(s.svc.Info())
}

func (s *Server) accessLog(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"elapsed", time.Since(start),
	)
	return err
}
