package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mpetrenko/telewatch/internal/models"
)

// Remote advisory code returned in a 200 body when the upstream platform is
// overloaded. Treated as a transient network failure.
const codeNetworkBusy = 9007

const codeOK = 200

// session bundles the transport and credentials that must be discarded
// together on reset. It is replaced wholesale, never mutated piecemeal, so a
// partially-initialized session can never leak into the fetch path.
type session struct {
	http  *http.Client
	token string
}

// HTTPClient implements Client against the telemetry API over HTTP.
type HTTPClient struct {
	baseURL  string
	username string
	password string
	timeout  time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	session *session
}

// Config holds the settings for the HTTP client.
type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

func NewHTTPClient(cfg Config, logger *zap.Logger) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &HTTPClient{
		baseURL:  cfg.BaseURL,
		username: cfg.Username,
		password: cfg.Password,
		timeout:  timeout,
		logger:   logger,
	}
	c.session = c.newSession()
	return c
}

func (c *HTTPClient) newSession() *session {
	return &session{
		http: &http.Client{Timeout: c.timeout},
	}
}

func (c *HTTPClient) currentSession() *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type envelope struct {
	Code int             `json:"code"`
	Info string          `json:"info"`
	Data json.RawMessage `json:"data"`
}

type loginData struct {
	Token string `json:"token"`
}

type powerData struct {
	SOC        float64 `json:"soc"`
	GridPower  float64 `json:"pgrid"`
	HousePower float64 `json:"pload"`
	BatPower   float64 `json:"pbat"`
	PVPower    float64 `json:"ppv"`
	CreateTime string  `json:"createtime"`
}

// Authenticate acquires a fresh token for the current session.
func (c *HTTPClient) Authenticate(ctx context.Context) error {
	const op = "authenticate"

	sess := c.currentSession()

	body, err := json.Marshal(loginRequest{Username: c.username, Password: c.password})
	if err != nil {
		return &InvalidResponseError{Op: op, Reason: fmt.Sprintf("failed to encode login request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/Account/Login", bytes.NewReader(body))
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := sess.http.Do(req)
	if err != nil {
		return classify(op, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	env, err := c.decodeEnvelope(op, resp)
	if err != nil {
		return err
	}

	var data loginData
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		return &InvalidResponseError{Op: op, Reason: "login response carries no token"}
	}

	c.mu.Lock()
	// The token belongs to the session it was issued for. If a reset swapped
	// the session while this login was in flight, discard the result.
	if c.session == sess {
		c.session.token = data.Token
	}
	c.mu.Unlock()

	c.logger.Debug("Authenticated against telemetry API")
	return nil
}

// FetchReading retrieves the latest telemetry snapshot. A 401 invalidates the
// token and retries once after reauthenticating, matching upstream behavior
// where tokens expire mid-session.
func (c *HTTPClient) FetchReading(ctx context.Context) (*models.Reading, error) {
	reading, err := c.fetchOnce(ctx)
	if err == nil {
		return reading, nil
	}

	if KindOf(err) != KindAuth {
		return nil, err
	}

	c.logger.Info("Token rejected, reauthenticating once before retry")
	if authErr := c.Authenticate(ctx); authErr != nil {
		return nil, authErr
	}
	return c.fetchOnce(ctx)
}

func (c *HTTPClient) fetchOnce(ctx context.Context) (*models.Reading, error) {
	const op = "fetch_reading"

	sess := c.currentSession()
	if sess.token == "" {
		return nil, &AuthError{Op: op, Err: fmt.Errorf("no token for current session")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/ESS/GetLastPowerData", nil)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+sess.token)

	resp, err := sess.http.Do(req)
	if err != nil {
		return nil, classify(op, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateToken(sess)
		return nil, &AuthError{Op: op, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	env, err := c.decodeEnvelope(op, resp)
	if err != nil {
		return nil, err
	}

	var data powerData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &InvalidResponseError{Op: op, Reason: fmt.Sprintf("failed to decode power data: %v", err)}
	}

	return &models.Reading{
		StateOfCharge:   data.SOC,
		GridPower:       data.GridPower,
		HousePower:      data.HousePower,
		BatteryPower:    data.BatPower,
		PVPower:         data.PVPower,
		RemoteCreatedAt: data.CreateTime,
		FetchedAt:       time.Now(),
	}, nil
}

// UpdateSettings pushes remote-side parameters upstream.
func (c *HTTPClient) UpdateSettings(ctx context.Context, settings models.Settings) error {
	const op = "update_settings"

	sess := c.currentSession()
	if sess.token == "" {
		return &AuthError{Op: op, Err: fmt.Errorf("no token for current session")}
	}

	body, err := json.Marshal(settings)
	if err != nil {
		return &InvalidResponseError{Op: op, Reason: fmt.Sprintf("failed to encode settings: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ESS/UpdateSettings", bytes.NewReader(body))
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+sess.token)

	resp, err := sess.http.Do(req)
	if err != nil {
		return classify(op, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateToken(sess)
		return &AuthError{Op: op, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	_, err = c.decodeEnvelope(op, resp)
	return err
}

// Reset discards the current session wholesale and installs a fresh,
// unauthenticated one. The caller (the recovery orchestrator, under its cycle
// lock) reauthenticates afterwards; in-flight calls on the old session finish
// against the old transport and their results are discarded.
func (c *HTTPClient) Reset(_ context.Context) error {
	c.mu.Lock()
	old := c.session
	c.session = c.newSession()
	c.mu.Unlock()

	if old != nil {
		old.http.CloseIdleConnections()
	}

	c.logger.Info("Telemetry API session reset")
	return nil
}

// Close releases transport resources.
func (c *HTTPClient) Close() {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()

	if sess != nil {
		sess.http.CloseIdleConnections()
	}
}

func (c *HTTPClient) invalidateToken(sess *session) {
	c.mu.Lock()
	if c.session == sess {
		c.session.token = ""
	}
	c.mu.Unlock()
}

// decodeEnvelope validates status and the remote result envelope, mapping
// remote advisory codes into the error taxonomy.
func (c *HTTPClient) decodeEnvelope(op string, resp *http.Response) (*envelope, error) {
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &AuthError{Op: op, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &InvalidResponseError{Op: op, Reason: fmt.Sprintf("failed to decode response: %v", err)}
	}

	switch env.Code {
	case codeOK:
		return &env, nil
	case codeNetworkBusy:
		// The platform reports its own backend congestion inside a 200 body.
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("remote reports network busy (code %d)", env.Code)}
	default:
		return nil, &InvalidResponseError{Op: op, Reason: fmt.Sprintf("remote code %d: %s", env.Code, env.Info)}
	}
}
