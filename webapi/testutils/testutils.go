// Package testutils builds a complete application backed by in-memory
// SQLite and the in-memory remote stores for HTTP tests.
package testutils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	infraeventbus "github.com/nNEWBE/expense-tracker-sub000/infra/eventbus"
	"github.com/nNEWBE/expense-tracker-sub000/infra/remote"
	localrepo "github.com/nNEWBE/expense-tracker-sub000/infra/repository/record"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/app"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/config"
	"github.com/nNEWBE/expense-tracker-sub000/pkg/service/auth"
	"github.com/nNEWBE/expense-tracker-sub000/webapi"
	"github.com/nNEWBE/expense-tracker-sub000/webapi/common"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// WebTestSuite gives every test a fresh application.
type WebTestSuite struct {
	suite.Suite
	App    *app.App
	Fiber  *fiber.App
	Remote *remote.MemoryRecordStore
	Cfg    *config.App
}

// DefaultConfig is used by SetupTest unless the suite sets Cfg.
func DefaultConfig() *config.App {
	return &config.App{
		Budget:    &config.Budget{Monthly: "1000", CurrencySymbol: "৳"},
		Auth:      &config.Auth{Jwt: &config.Jwt{Secret: "web-test-secret", Expiry: time.Hour}},
		RateLimit: &config.RateLimit{MaxRequests: 1000, Window: time.Second},
	}
}

func (s *WebTestSuite) SetupTest() {
	cfg := s.Cfg
	if cfg == nil {
		cfg = DefaultConfig()
	}
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(localrepo.AutoMigrate(db))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	local := localrepo.New(db, log)
	s.Remote = remote.NewMemoryRecordStore()
	deps := &app.Deps{
		Local:         local,
		Remote:        s.Remote,
		Notifications: remote.NewMemoryNotificationStore(),
		EventBus:      infraeventbus.NewWithMemoryAsync(log),
		Strategy:      auth.NewJWTStrategy(cfg.Auth.Jwt, log),
		Logger:        log,
		Closers:       []func() error{sqlDB.Close, local.Close},
	}
	s.App = app.New(deps, cfg)
	s.Fiber = webapi.SetupApp(s.App)
}

func (s *WebTestSuite) TearDownTest() {
	s.Require().NoError(s.App.Close())
}

// SignIn issues a token for userID through the API and signs in with it.
func (s *WebTestSuite) SignIn(userID string) {
	var token struct {
		Token string `json:"token"`
	}
	resp := s.MakeRequest(fiber.MethodPost, "/session/token", fmt.Sprintf(`{"userId":%q}`, userID))
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	s.DecodeData(resp, &token)

	resp = s.MakeRequest(fiber.MethodPost, "/session", fmt.Sprintf(`{"token":%q}`, token.Token))
	defer resp.Body.Close() //nolint: errcheck
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
}

// MakeRequest sends a JSON request through the fiber app.
func (s *WebTestSuite) MakeRequest(method, path, body string) *http.Response {
	return MakeRequestWithApp(s.Fiber, method, path, body)
}

// DecodeData decodes the Data field of a success envelope into out and
// closes the body.
func (s *WebTestSuite) DecodeData(resp *http.Response, out any) {
	defer resp.Body.Close() //nolint: errcheck
	var envelope struct {
		Status int             `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&envelope))
	s.Require().NoError(json.Unmarshal(envelope.Data, out))
}

// DecodeProblem decodes a problem details body and closes it.
func (s *WebTestSuite) DecodeProblem(resp *http.Response) common.ProblemDetails {
	defer resp.Body.Close() //nolint: errcheck
	var pd common.ProblemDetails
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&pd))
	return pd
}

func MakeRequestWithApp(app *fiber.App, method, path, body string) *http.Response {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, 5000)
	if err != nil {
		panic(err)
	}
	return resp
}
