// Package response implements the uniform API response envelope. Every
// endpoint, success or failure, answers with the same top-level shape so
// clients can parse blindly.
package response

import (
	"strconv"
	"time"

	"sav3_backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// StartTimeKey is set by the request-ID middleware so the envelope can
// report the handler's response time.
const StartTimeKey = "request_start"

var apiVersion = "v1"

// SetVersion configures the version reported in envelope meta.
func SetVersion(v string) {
	if v != "" {
		apiVersion = v
	}
}

type Meta struct {
	Timestamp      time.Time `json:"timestamp"`
	RequestID      string    `json:"request_id"`
	Version        string    `json:"version"`
	ResponseTimeMS int64     `json:"response_time_ms"`
}

type Pagination struct {
	Total      int64  `json:"total"`
	Page       int    `json:"page,omitempty"`
	PerPage    int    `json:"per_page"`
	TotalPages int    `json:"total_pages,omitempty"`
	NextCursor string `json:"next_cursor,omitempty"`
}

type Envelope struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      interface{} `json:"error,omitempty"`
	Meta       Meta        `json:"meta"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

func buildMeta(c *gin.Context) Meta {
	meta := Meta{
		Timestamp: time.Now().UTC(),
		RequestID: logger.GetRequestID(c.Request.Context()),
		Version:   apiVersion,
	}

	if start, ok := c.Get(StartTimeKey); ok {
		if startTime, ok := start.(time.Time); ok {
			meta.ResponseTimeMS = time.Since(startTime).Milliseconds()
		}
	}

	return meta
}

// Success writes a success envelope.
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{
		Success: true,
		Data:    data,
		Meta:    buildMeta(c),
	})
}

// Paginated writes a success envelope with pagination, mirrored into
// response headers for clients that only look at headers.
func Paginated(c *gin.Context, status int, data interface{}, p *Pagination) {
	if p != nil {
		c.Header("X-Total-Count", strconv.FormatInt(p.Total, 10))
		c.Header("X-Per-Page", strconv.Itoa(p.PerPage))
		if p.TotalPages > 0 {
			c.Header("X-Page-Count", strconv.Itoa(p.TotalPages))
		}
		if p.Page > 0 {
			c.Header("X-Page", strconv.Itoa(p.Page))
		}
	}

	c.JSON(status, Envelope{
		Success:    true,
		Data:       data,
		Meta:       buildMeta(c),
		Pagination: p,
	})
}

// WriteError writes a failure envelope. body is the serialized error
// (code, message, details, retryable).
func WriteError(c *gin.Context, status int, body interface{}) {
	c.JSON(status, Envelope{
		Success: false,
		Error:   body,
		Meta:    buildMeta(c),
	})
}
