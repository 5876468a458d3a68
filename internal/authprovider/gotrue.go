package authprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// GoTrueClient implementa Provider contra la API REST de GoTrue.
type GoTrueClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewGoTrueClient recibe la URL del proyecto (sin /auth/v1) y la API key publica.
func NewGoTrueClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *GoTrueClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoTrueClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/auth/v1",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *GoTrueClient) SignIn(ctx context.Context, email, password string) (Session, error) {
	body := map[string]string{"email": email, "password": password}
	var session Session
	status, err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", body, &session)
	if err != nil {
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if session.AccessToken == "" || session.User.Email == "" {
		return Session{}, fmt.Errorf("provider sign in: empty session")
	}
	return session, nil
}

func (c *GoTrueClient) SignUp(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	_, err := c.do(ctx, http.MethodPost, "/signup", "", body, nil)
	return err
}

func (c *GoTrueClient) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
	return err
}

func (c *GoTrueClient) GetUser(ctx context.Context, accessToken string) (User, error) {
	var user User
	status, err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, &user)
	if err != nil {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return User{}, ErrUnauthorized
		}
		return User{}, err
	}
	return user, nil
}

func (c *GoTrueClient) ResetPasswordEmail(ctx context.Context, email string) error {
	_, err := c.do(ctx, http.MethodPost, "/recover", "", map[string]string{"email": email}, nil)
	return err
}

func (c *GoTrueClient) UpdatePassword(ctx context.Context, accessToken, password string) error {
	if strings.TrimSpace(accessToken) == "" {
		return ErrUnauthorized
	}
	_, err := c.do(ctx, http.MethodPut, "/user", accessToken, map[string]string{"password": password}, nil)
	return err
}

// do ejecuta el request y decodifica la respuesta en out si no es nil.
// Devuelve el status HTTP aun cuando hay error de aplicacion.
func (c *GoTrueClient) do(ctx context.Context, method, path, bearer string, in, out any) (int, error) {
	var reader io.Reader
	if in != nil {
		bodyBytes, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Debug("auth provider error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return resp.StatusCode, fmt.Errorf("auth provider http error: status=%d", resp.StatusCode)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
