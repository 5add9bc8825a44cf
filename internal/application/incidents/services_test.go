package incidents

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/footprint-shield/internal/application"
	domain "github.com/bryanwahyu/footprint-shield/internal/domain/incidents"
	"github.com/bryanwahyu/footprint-shield/internal/infra/storage"
)

var at = time.Date(2026, 10, 16, 9, 30, 15, 0, time.UTC)

func newService(t *testing.T) *Service {
	t.Helper()
	repo, err := storage.NewFileStore(filepath.Join(t.TempDir(), "incidents.json"))
	require.NoError(t, err)
	return &Service{Repo: repo, Clock: application.FixedClock(at)}
}

func TestNewIDFormat(t *testing.T) {
	id := NewID(application.FixedClock(at))
	assert.Regexp(t, regexp.MustCompile(`^inc_20261016093015_[0-9a-f]{8}$`), string(id))
	assert.NotEqual(t, id, NewID(application.FixedClock(at)))
}

func TestSaveAppliesDefaults(t *testing.T) {
	s := newService(t)
	in, err := s.Save(context.Background(), SaveIncidentCommand{Message: "you will regret this"})
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultType, in.Type)
	assert.Equal(t, domain.DefaultPlatform, in.Platform)
	assert.Equal(t, domain.DefaultSeverity, in.Severity)
	assert.Equal(t, "", in.Notes)
	assert.Equal(t, at, in.Timestamp)
}

func TestSaveListDelete(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	first, err := s.Save(ctx, SaveIncidentCommand{Type: "harassment", Platform: "Instagram", Severity: "high"})
	require.NoError(t, err)
	second, err := s.Save(ctx, SaveIncidentCommand{Type: "doxxing"})
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Instagram", list[0].Platform)

	require.NoError(t, s.Delete(ctx, first.ID))
	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)
}
