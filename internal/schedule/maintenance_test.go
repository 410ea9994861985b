package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kael9/remedy/internal/storage"
)

// fakeHistory records DeleteBefore calls
type fakeHistory struct {
	mu      sync.Mutex
	cutoffs []time.Time
}

func (h *fakeHistory) Store(ctx context.Context, record *storage.RunRecord) error { return nil }

func (h *fakeHistory) Get(ctx context.Context, id string) (*storage.RunRecord, error) {
	return nil, nil
}

func (h *fakeHistory) List(ctx context.Context, filters map[string]interface{}, offset, limit int) ([]*storage.RunRecord, error) {
	return nil, nil
}

func (h *fakeHistory) Count(ctx context.Context, filters map[string]interface{}) (int, error) {
	return 0, nil
}

func (h *fakeHistory) DeleteBefore(ctx context.Context, before time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cutoffs = append(h.cutoffs, before)
	return nil
}

func (h *fakeHistory) calls() []time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]time.Time(nil), h.cutoffs...)
}

func TestMaintenance_CleanupRespectsRetention(t *testing.T) {
	history := &fakeHistory{}
	config := Config{
		CleanupSpec: "* * * * * *",
		Retention:   30 * 24 * time.Hour,
	}

	m := NewMaintenance(config, history, nil, nil, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, m.Start(ctx))
	defer m.Stop()

	require.Eventually(t, func() bool {
		return len(history.calls()) > 0
	}, 5*time.Second, 100*time.Millisecond)

	cutoff := history.calls()[0]
	want := time.Now().Add(-config.Retention)
	require.WithinDuration(t, want, cutoff, 5*time.Second)
}

func TestMaintenance_InvalidCronSpec(t *testing.T) {
	m := NewMaintenance(Config{CleanupSpec: "not a cron spec"}, &fakeHistory{}, nil, nil, zaptest.NewLogger(t))

	err := m.Start(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid cleanup cron expression")
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	require.Equal(t, "0 0 3 * * *", config.CleanupSpec)
	require.Equal(t, 30*24*time.Hour, config.Retention)
	require.Equal(t, "0 0 * * * *", config.DigestSpec)
}
