package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"sav3_backend/internal/logger"
	"sav3_backend/internal/middleware"
	"sav3_backend/pkg/errorreport"
)

var diagnosticsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// DiagnosticsHandler collects client error reports into a bounded
// in-memory ring for admins to inspect.
type DiagnosticsHandler struct {
	*BaseHandler
	buffer *errorreport.Buffer
}

func NewDiagnosticsHandler(base *BaseHandler, buffer *errorreport.Buffer) *DiagnosticsHandler {
	return &DiagnosticsHandler{
		BaseHandler: base,
		buffer:      buffer,
	}
}

func (h *DiagnosticsHandler) RegisterRoutes(r *gin.RouterGroup) {
	errs := r.Group("/errors")
	errs.Use(middleware.AuthMiddleware())
	{
		errs.POST("", h.ReportError)
	}

	admin := r.Group("/admin/errors")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireAdmin())
	{
		admin.GET("", h.ListErrors)
	}
}

type errorReportRequest struct {
	Level      string            `json:"level" validate:"omitempty,oneof=error warning info"`
	Source     string            `json:"source" validate:"omitempty,max=200"`
	Message    string            `json:"message" validate:"required,max=2000"`
	Stack      string            `json:"stack" validate:"omitempty,max=20000"`
	URL        string            `json:"url" validate:"omitempty,max=2000"`
	StatusCode int               `json:"status_code"`
	Meta       map[string]string `json:"meta"`
}

func (h *DiagnosticsHandler) ReportError(c *gin.Context) {
	var req errorReportRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	h.buffer.Add(h.toReport(req))
	h.Created(c, gin.H{"accepted": true})
}

func (h *DiagnosticsHandler) ListErrors(c *gin.Context) {
	reports := h.buffer.Snapshot()
	h.OK(c, gin.H{
		"reports": reports,
		"count":   len(reports),
	})
}

// ServeWS accepts a stream of reports over a websocket. Malformed
// frames are dropped; the collector never talks back.
func (h *DiagnosticsHandler) ServeWS(c *gin.Context) {
	conn, err := diagnosticsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WithError(err).Warn("diagnostics ws upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(64 * 1024)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req errorReportRequest
		if err := json.Unmarshal(payload, &req); err != nil || req.Message == "" {
			continue
		}
		h.buffer.Add(h.toReport(req))
	}
}

func (h *DiagnosticsHandler) toReport(req errorReportRequest) errorreport.Report {
	level := req.Level
	if level == "" {
		level = "error"
	}
	return errorreport.Report{
		ID:         uuid.NewString(),
		Level:      level,
		Source:     req.Source,
		Message:    req.Message,
		Stack:      req.Stack,
		URL:        req.URL,
		StatusCode: req.StatusCode,
		OccurredAt: time.Now().UTC(),
		Meta:       req.Meta,
	}
}
