// Package tokens keeps the OAuth access tokens of all platform adapters
// fresh with one shared scheduler.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	httpx "tunelink/internal/http"
	"tunelink/pkg/platform"
)

// DefaultRefreshInterval is how often adapters are polled for refresh. It is
// deliberately decoupled from any platform's token TTL: adapters no-op when
// their token is still outside the leniency window.
const DefaultRefreshInterval = 20 * time.Minute

// Manager periodically walks the OAuth-capable adapters and asks each to
// refresh its access token.
type Manager struct {
	registry *platform.Registry
	interval time.Duration
	metrics  *httpx.Metrics
	logger   *zap.Logger
}

// NewManager creates a token manager. A non-positive interval selects the
// default.
func NewManager(registry *platform.Registry, interval time.Duration, metrics *httpx.Metrics, logger *zap.Logger) *Manager {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Manager{
		registry: registry,
		interval: interval,
		metrics:  metrics,
		logger:   logger.Named("tokens"),
	}
}

// Run refreshes all tokens once immediately, then on every tick until ctx is
// cancelled. Invalid client credentials are a configuration mistake: they
// abort the run and propagate to the operator instead of being retried
// forever. Any other refresh failure is logged and retried next tick.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.refreshAll(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := m.refreshAll(ctx); err != nil {
				return err
			}
		}
	}
}

// refreshAll runs one refresh pass. The pass is skipped entirely when the
// shared HTTP client has already been closed, which happens when a tick
// races process shutdown.
func (m *Manager) refreshAll(ctx context.Context) error {
	if m.registry.Client() != nil && m.registry.Client().Closed() {
		m.logger.Debug("Skipping token refresh, HTTP client is closed")
		return nil
	}

	for _, api := range m.registry.OAuth() {
		err := api.RefreshAccessToken(ctx)
		if err == nil {
			m.metrics.RecordTokenRefresh(api.Name(), "ok")
			continue
		}
		m.metrics.RecordTokenRefresh(api.Name(), "error")
		if errors.Is(err, platform.ErrInvalidCredentials) {
			return fmt.Errorf("refreshing %s token: %w", api.Name(), err)
		}
		m.logger.Warn("Failed to refresh access token, will retry next tick",
			zap.String("platform", api.Name()),
			zap.Error(err))
	}
	return nil
}
