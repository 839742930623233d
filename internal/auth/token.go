// Package auth keeps a marketplace access token fresh. The refresh endpoint
// rotates the whole credential set, so every successful call replaces the
// stored refresh, device and long-lived tokens along with the access token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Roll1ngo/Last-item-bot/internal/config"
	"github.com/Roll1ngo/Last-item-bot/internal/logger"
)

const refreshPath = "/user/refresh_access"

// ErrNoToken is returned by Token before the first successful refresh.
var ErrNoToken = errors.New("no access token available yet")

type refreshRequest struct {
	UserID            string `json:"user_id"`
	RefreshToken      string `json:"refresh_token"`
	ActiveDeviceToken string `json:"active_device_token,omitempty"`
	LongLivedToken    string `json:"long_lived_token,omitempty"`
}

type refreshResponse struct {
	Payload struct {
		AccessToken       string `json:"access_token"`
		RefreshToken      string `json:"refresh_token"`
		ActiveDeviceToken string `json:"active_device_token"`
		LongLivedToken    string `json:"long_lived_token"`
	} `json:"payload"`
}

// TokenManager refreshes the access token on a fixed interval and hands the
// current one to API callers. Safe for concurrent use.
type TokenManager struct {
	client *resty.Client
	userID string

	mu             sync.RWMutex
	accessToken    string
	refreshToken   string
	deviceToken    string
	longLivedToken string
}

// NewTokenManager seeds the manager with the credentials from configuration.
// The marketplace section supplies the endpoint, timeout and user agent.
func NewTokenManager(cfg config.AuthConfig, mkt config.MarketplaceConfig) *TokenManager {
	client := resty.New().
		SetBaseURL(mkt.APIBaseURL).
		SetTimeout(mkt.Timeout).
		SetHeader("Content-Type", "application/json")
	if mkt.UserAgent != "" {
		client.SetHeader("User-Agent", mkt.UserAgent)
	}

	return &TokenManager{
		client:         client,
		userID:         cfg.UserID,
		refreshToken:   cfg.RefreshToken,
		deviceToken:    cfg.DeviceToken,
		longLivedToken: cfg.LongLivedToken,
	}
}

// Token returns the current access token.
func (m *TokenManager) Token() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.accessToken == "" {
		return "", ErrNoToken
	}
	return m.accessToken, nil
}

// Refresh exchanges the stored refresh token for a new credential set.
func (m *TokenManager) Refresh(ctx context.Context) error {
	m.mu.RLock()
	req := refreshRequest{
		UserID:            m.userID,
		RefreshToken:      m.refreshToken,
		ActiveDeviceToken: m.deviceToken,
		LongLivedToken:    m.longLivedToken,
	}
	m.mu.RUnlock()

	var out refreshResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post(refreshPath)
	if err != nil {
		return fmt.Errorf("token refresh request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("token refresh returned status %d: %s", resp.StatusCode(), resp.String())
	}
	if out.Payload.AccessToken == "" {
		return fmt.Errorf("token refresh response carries no access token")
	}

	m.mu.Lock()
	m.accessToken = out.Payload.AccessToken
	if out.Payload.RefreshToken != "" {
		m.refreshToken = out.Payload.RefreshToken
	}
	if out.Payload.ActiveDeviceToken != "" {
		m.deviceToken = out.Payload.ActiveDeviceToken
	}
	if out.Payload.LongLivedToken != "" {
		m.longLivedToken = out.Payload.LongLivedToken
	}
	m.mu.Unlock()

	logger.Infof("Access token refreshed")
	return nil
}

// ForceRefresh is the recovery path after an authorization failure mid-cycle.
// A failed attempt keeps the previous token in place.
func (m *TokenManager) ForceRefresh(ctx context.Context) error {
	logger.Warnf("Forcing token refresh after an authorization failure")
	return m.Refresh(ctx)
}

// StartRefreshLoop refreshes immediately, then on every tick until the
// context is cancelled.
func (m *TokenManager) StartRefreshLoop(ctx context.Context, interval time.Duration) {
	if err := m.Refresh(ctx); err != nil {
		logger.Errorf("Initial token refresh failed: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Refresh(ctx); err != nil {
				logger.Errorf("Scheduled token refresh failed, retrying in %s: %v", interval, err)
			}
		}
	}
}
