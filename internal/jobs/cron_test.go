package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anvarKhakimov/jira-gantt-app/internal/config"
	"github.com/anvarKhakimov/jira-gantt-app/internal/repo"
	"github.com/anvarKhakimov/jira-gantt-app/internal/services"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	calls []time.Time
	err   error
}

func (f *fakeService) Rebuild(_ context.Context, now time.Time) (services.Result, error) {
	f.calls = append(f.calls, now)
	return services.Result{RunID: "r"}, f.err
}

type heldLocker struct{ err error }

func (h heldLocker) TryAdvisoryLock(context.Context, int64) (*repo.Lock, error) { return nil, h.err }

func TestNewCron_InvalidSchedule(t *testing.T) {
	_, err := NewCron(config.Config{RebuildCron: "not a schedule"}, zerolog.Nop(), &fakeService{}, nil)
	assert.Error(t, err)
}

func TestRebuild_WithoutLocker(t *testing.T) {
	svc := &fakeService{}
	cr, err := NewCron(config.Config{RebuildCron: "*/5 * * * *"}, zerolog.Nop(), svc, nil)
	require.NoError(t, err)
	fixed := time.Date(2024, 1, 20, 15, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	cr.now = func() time.Time { return fixed }

	cr.rebuild()
	require.Len(t, svc.calls, 1)
	assert.Equal(t, fixed.UTC(), svc.calls[0])

	svc.err = errors.New("boom")
	cr.rebuild()
	assert.Len(t, svc.calls, 2)
}

func TestRebuild_SkipsWhenLockHeld(t *testing.T) {
	svc := &fakeService{}
	cr, err := NewCron(config.Config{RebuildCron: "0 * * * *"}, zerolog.Nop(), svc, heldLocker{})
	require.NoError(t, err)
	cr.rebuild()
	assert.Empty(t, svc.calls)

	cr.lock = heldLocker{err: errors.New("db down")}
	cr.rebuild()
	assert.Empty(t, svc.calls)
}
