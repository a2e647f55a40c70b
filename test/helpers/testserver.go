package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"sav3_backend/internal/app"
	"sav3_backend/internal/auth"
	"sav3_backend/internal/config"
	"sav3_backend/internal/logger"
	"sav3_backend/pkg/errorreport"
	"sav3_backend/pkg/response"

	"time"
)

type TestServer struct {
	Server   *httptest.Server
	DB       *gorm.DB
	stop     context.CancelFunc
	reporter *errorreport.Reporter
}

// NewTestServer boots the full router against the database named by
// DATABASE_URL.
func NewTestServer(t *testing.T) *TestServer {
	config.LoadConfig()
	cfg := config.GetConfig()

	logger.Init("test")
	auth.Configure(cfg.JWT.Secret, time.Duration(cfg.JWT.TTL)*time.Minute)
	response.SetVersion(cfg.Server.Version)

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to test database (%s): %v", cfg.Database.DSN, err)
	}

	if err := app.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	reporter := errorreport.New(errorreport.Config{BufferSize: 10})

	router := app.SetupRouter(cfg, db, reporter, ctx)
	server := httptest.NewServer(router)

	return &TestServer{
		Server:   server,
		DB:       db,
		stop:     cancel,
		reporter: reporter,
	}
}

func (ts *TestServer) Close() {
	ts.stop()
	ts.reporter.Close()
	ts.Server.Close()
	sqlDB, _ := ts.DB.DB()
	_ = sqlDB.Close()
}

// Envelope mirrors the API response wrapper for assertions.
type Envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      *EnvelopeError  `json:"error"`
	Pagination *struct {
		Total      int64  `json:"total"`
		PerPage    int    `json:"per_page"`
		TotalPages int    `json:"total_pages"`
		NextCursor string `json:"next_cursor"`
	} `json:"pagination"`
}

type EnvelopeError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// ParseEnvelope decodes the body and, when wanted, the data payload.
func ParseEnvelope(t *testing.T, body string, data interface{}) Envelope {
	var env Envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		t.Fatalf("failed to parse envelope: %v\nbody: %s", err, body)
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("failed to parse envelope data: %v\nbody: %s", err, body)
		}
	}
	return env
}

func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	url := ts.Server.URL + path

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := ts.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("failed to send request: %v", err)
	}

	resBodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	defer res.Body.Close()

	return res, string(resBodyBytes)
}
