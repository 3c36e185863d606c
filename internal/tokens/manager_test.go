package tokens

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"tunelink/pkg/platform"
)

// fakeOAuth mimics an adapter with leniency-gated refresh: a network call
// only happens when the held token expires within the leniency window.
type fakeOAuth struct {
	name       string
	leniency   time.Duration
	expiry     time.Time
	grants     int
	refreshErr error
}

func (f *fakeOAuth) Name() string                       { return f.name }
func (f *fakeOAuth) TrackID(url string) (string, error) { return "", platform.ErrInvalidURL }
func (f *fakeOAuth) ValidTrackURL(url string) bool      { return false }
func (f *fakeOAuth) TrackByID(ctx context.Context, id string) (*platform.UniversalTrack, error) {
	return nil, nil
}
func (f *fakeOAuth) SearchTracks(ctx context.Context, query string) ([]*platform.UniversalTrack, error) {
	return nil, nil
}

func (f *fakeOAuth) ShouldRefreshToken() bool {
	return f.expiry.Before(time.Now().Add(f.leniency))
}

func (f *fakeOAuth) RefreshAccessToken(ctx context.Context) error {
	if !f.ShouldRefreshToken() {
		return nil
	}
	if f.refreshErr != nil {
		return f.refreshErr
	}
	f.grants++
	f.expiry = time.Now().Add(time.Hour)
	return nil
}

func newTestManager(t *testing.T, client *platform.Client, adapters ...platform.API) (*Manager, *platform.Registry) {
	t.Helper()

	registry := platform.NewRegistry(client)
	for _, api := range adapters {
		if err := registry.Register(api); err != nil {
			t.Fatal(err)
		}
	}
	return NewManager(registry, time.Minute, nil, zap.NewNop()), registry
}

func TestRefreshAllHonorsLeniency(t *testing.T) {
	const leniency = 15 * time.Minute

	tests := []struct {
		name       string
		expiry     time.Time
		wantGrants int
	}{
		{
			name:       "expiry inside leniency triggers refresh",
			expiry:     time.Now().Add(10 * time.Minute),
			wantGrants: 1,
		},
		{
			name:       "expiry outside leniency performs no call",
			expiry:     time.Now().Add(20 * time.Minute),
			wantGrants: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := &fakeOAuth{name: "oauthy", leniency: leniency, expiry: tt.expiry}
			m, _ := newTestManager(t, nil, adapter)

			if err := m.refreshAll(context.Background()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if adapter.grants != tt.wantGrants {
				t.Errorf("grants = %d, want %d", adapter.grants, tt.wantGrants)
			}
		})
	}
}

func TestRefreshAllSkipsWhenClientClosed(t *testing.T) {
	client := platform.NewClient()
	client.Close()

	adapter := &fakeOAuth{name: "oauthy", leniency: 15 * time.Minute}
	m, _ := newTestManager(t, client, adapter)

	if err := m.refreshAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adapter.grants != 0 {
		t.Errorf("grants = %d, want 0 after shutdown", adapter.grants)
	}
}

func TestRunAbortsOnInvalidCredentials(t *testing.T) {
	adapter := &fakeOAuth{
		name:       "oauthy",
		leniency:   15 * time.Minute,
		refreshErr: platform.ErrInvalidCredentials,
	}
	m, _ := newTestManager(t, nil, adapter)

	err := m.Run(context.Background())
	if !errors.Is(err, platform.ErrInvalidCredentials) {
		t.Fatalf("Run error = %v, want ErrInvalidCredentials", err)
	}
}

func TestRefreshAllRetriesTransientErrors(t *testing.T) {
	failing := &fakeOAuth{
		name:       "flaky",
		leniency:   15 * time.Minute,
		refreshErr: errors.New("upstream hiccup"),
	}
	healthy := &fakeOAuth{name: "steady", leniency: 15 * time.Minute}
	m, _ := newTestManager(t, nil, failing, healthy)

	if err := m.refreshAll(context.Background()); err != nil {
		t.Fatalf("transient failure must not abort the pass: %v", err)
	}
	if healthy.grants != 1 {
		t.Errorf("healthy adapter grants = %d, want 1", healthy.grants)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	adapter := &fakeOAuth{name: "oauthy", leniency: 15 * time.Minute}
	m, _ := newTestManager(t, nil, adapter)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}

	if adapter.grants != 1 {
		t.Errorf("grants = %d, want 1 (the immediate startup refresh)", adapter.grants)
	}
}
