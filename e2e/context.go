package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"learnhub/internal/account"
	"learnhub/internal/app"
	"learnhub/internal/auth/session"
	"learnhub/internal/mail"
	"learnhub/internal/platform/config"
	"learnhub/internal/platform/metrics"
	"learnhub/pkg/domain"
)

const apiPrefix = "/api/v1"

// TestContext holds one scenario's server, inbox and last response.
type TestContext struct {
	server   *httptest.Server
	client   *http.Client
	accounts *account.InMemoryStore
	inbox    *inbox

	lastStatus int
	lastBody   []byte

	activationToken string
	accessToken     string
	refreshToken    string
}

type inbox struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (i *inbox) Send(_ context.Context, msg mail.Message) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.sent = append(i.sent, msg)
	return nil
}

func defaultConfig() config.Server {
	return config.Server{
		APIPrefix: apiPrefix,
		Tokens: config.TokenConfig{
			ActivationSecret:     "e2e-activation-secret",
			AccessSecret:         "e2e-access-secret",
			RefreshSecret:        "e2e-refresh-secret",
			Issuer:               "learnhub-e2e",
			AccessTTL:            5 * time.Minute,
			RefreshTTL:           72 * time.Hour,
			ActivationTTL:        5 * time.Minute,
			ActivationCodeDigits: 4,
		},
		RateLimit: config.RateLimitConfig{PerMinute: 600, Burst: 100},
	}
}

// Start boots an in-memory instance. perMinute <= 0 keeps the default limit.
func (tc *TestContext) Start(perMinute, burst int) error {
	tc.Stop()
	cfg := defaultConfig()
	if perMinute > 0 {
		cfg.RateLimit = config.RateLimitConfig{PerMinute: perMinute, Burst: burst}
	}

	tc.accounts = account.NewInMemoryStore()
	tc.inbox = &inbox{}
	handler, err := app.NewHandler(cfg, app.Deps{
		Cache:    session.NewMemoryCache(),
		Accounts: tc.accounts,
		Mailer:   tc.inbox,
		Metrics:  metrics.New(prometheus.NewRegistry()),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		return err
	}
	tc.server = httptest.NewServer(handler)
	tc.client = tc.server.Client()
	tc.lastStatus, tc.lastBody = 0, nil
	tc.activationToken, tc.accessToken, tc.refreshToken = "", "", ""
	return nil
}

// Stop shuts the scenario's server down.
func (tc *TestContext) Stop() {
	if tc.server != nil {
		tc.server.Close()
		tc.server = nil
	}
}

func (tc *TestContext) Do(method, path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.server.URL+apiPrefix+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.Do(http.MethodPost, path, body, nil)
}

func (tc *TestContext) LastStatus() int { return tc.lastStatus }

func (tc *TestContext) LastBody() []byte { return tc.lastBody }

// ResponseField reads a dotted path such as "user.email" from the last JSON body.
func (tc *TestContext) ResponseField(path string) (any, error) {
	var doc any
	if err := json.Unmarshal(tc.lastBody, &doc); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w: %s", err, tc.lastBody)
	}
	cur := doc
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", path, part)
		}
		cur, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("field %q missing in %s", path, tc.lastBody)
		}
	}
	return cur, nil
}

// LastMailTo reports the activation code sent to address, if any.
func (tc *TestContext) LastMailTo(address string) (string, bool) {
	tc.inbox.mu.Lock()
	defer tc.inbox.mu.Unlock()
	for i := len(tc.inbox.sent) - 1; i >= 0; i-- {
		msg := tc.inbox.sent[i]
		if strings.EqualFold(msg.Recipient, address) {
			data, ok := msg.TemplateData.(mail.ActivationData)
			return data.ActivationCode, ok
		}
	}
	return "", false
}

// Promote grants the admin role directly through the store.
func (tc *TestContext) Promote(ctx context.Context, email string) error {
	acc, err := tc.accounts.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	acc.Role = domain.RoleAdmin
	return tc.accounts.Update(ctx, acc)
}

func (tc *TestContext) ActivationToken() string     { return tc.activationToken }
func (tc *TestContext) SetActivationToken(t string) { tc.activationToken = t }
func (tc *TestContext) AccessToken() string         { return tc.accessToken }
func (tc *TestContext) SetAccessToken(t string)     { tc.accessToken = t }
func (tc *TestContext) RefreshToken() string        { return tc.refreshToken }
func (tc *TestContext) SetRefreshToken(t string)    { tc.refreshToken = t }
