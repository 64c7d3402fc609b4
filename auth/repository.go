// Package auth is the client for the backend's authentication endpoints. It
// exchanges credentials for bearer tokens; storing the result in the session
// gate is the caller's concern.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"gofalre.io/storefront/driver"
	"gofalre.io/storefront/models"
)

var _ Repository = (*repository)(nil)

// ErrInvalidCredentials marks a login or password change the backend
// rejected.
var ErrInvalidCredentials = errors.New("invalid credentials")

type Repository interface {
	Login(ctx context.Context, email, password string) (*models.Credential, error)
	Register(ctx context.Context, params RegisterParams) (*models.Credential, error)
	GetProfile(ctx context.Context) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, params UpdateProfileParams) (*models.UserProfile, error)
	UpdatePassword(ctx context.Context, params UpdatePasswordParams) error
}

type repository struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewRepository(baseURL string, client *http.Client, logger *zap.Logger) Repository {
	return &repository{
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}
}

// credentialResponse is the wire shape of a successful login or register.
type credentialResponse struct {
	Token string              `json:"token"`
	User  *models.UserProfile `json:"user"`
}

func (r *repository) Login(ctx context.Context, email, password string) (*models.Credential, error) {
	body, err := r.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var resp credentialResponse
	if err = driver.DecodeEnvelope(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	if resp.Token == "" {
		return nil, ErrInvalidCredentials
	}

	return models.NewCredential(resp.Token, resp.User), nil
}

func (r *repository) Register(ctx context.Context, params RegisterParams) (*models.Credential, error) {
	body, err := r.do(ctx, http.MethodPost, "/auth/register", params)
	if err != nil {
		return nil, err
	}

	var resp credentialResponse
	if err = driver.DecodeEnvelope(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode register response: %w", err)
	}
	if resp.Token == "" {
		return nil, errors.New("register response carried no token")
	}

	return models.NewCredential(resp.Token, resp.User), nil
}

func (r *repository) GetProfile(ctx context.Context) (*models.UserProfile, error) {
	body, err := r.do(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}

	profile := new(models.UserProfile)
	if err = driver.DecodeEnvelope(body, profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return profile, nil
}

func (r *repository) UpdateProfile(ctx context.Context, params UpdateProfileParams) (*models.UserProfile, error) {
	body, err := r.do(ctx, http.MethodPut, "/auth/updatedetails", params)
	if err != nil {
		return nil, err
	}

	profile := new(models.UserProfile)
	if err = driver.DecodeEnvelope(body, profile); err != nil {
		return nil, fmt.Errorf("failed to decode updated profile: %w", err)
	}
	return profile, nil
}

func (r *repository) UpdatePassword(ctx context.Context, params UpdatePasswordParams) error {
	_, err := r.do(ctx, http.MethodPut, "/auth/updatepassword", params)
	return err
}

func (r *repository) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrInvalidCredentials
	default:
		apiErr := driver.DecodeAPIError(resp.StatusCode, body)
		r.logger.Error("Auth request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return nil, apiErr
	}
}
