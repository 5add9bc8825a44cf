// Package incidentstest holds the behaviour every incidents.Repository
// backend must share, runnable from each backend's tests.
package incidentstest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/footprint-shield/internal/domain/incidents"
)

// Opener returns an empty repository. It is called once per subtest.
type Opener func(t *testing.T) incidents.Repository

// Stamp is the timestamp given to incidents built by Incident. It carries
// microseconds, the finest precision every backend keeps.
var Stamp = time.Date(2026, 10, 16, 9, 30, 15, 123456000, time.UTC)

func Incident(id string) *incidents.Incident {
	return &incidents.Incident{
		ID:        incidents.IncidentID(id),
		Type:      "harassment",
		Platform:  "Instagram",
		Message:   "message " + id,
		Severity:  "high",
		Notes:     "notes " + id,
		Timestamp: Stamp,
	}
}

// Run exercises open's repository against the shared repository contract.
func Run(t *testing.T, open Opener) {
	t.Run("EmptyListIsNotNil", func(t *testing.T) {
		list, err := open(t).List(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})

	t.Run("ListKeepsSaveOrderAndFields", func(t *testing.T) {
		ctx := context.Background()
		repo := open(t)
		for _, id := range []string{"inc_b", "inc_a", "inc_c"} {
			require.NoError(t, repo.Save(ctx, Incident(id)))
		}

		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		ids := []incidents.IncidentID{list[0].ID, list[1].ID, list[2].ID}
		assert.Equal(t, []incidents.IncidentID{"inc_b", "inc_a", "inc_c"}, ids)

		got, want := list[1], Incident("inc_a")
		assert.Equal(t, want.Type, got.Type)
		assert.Equal(t, want.Platform, got.Platform)
		assert.Equal(t, want.Message, got.Message)
		assert.Equal(t, want.Severity, got.Severity)
		assert.Equal(t, want.Notes, got.Notes)
		assert.True(t, want.Timestamp.Equal(got.Timestamp), "timestamp %s, want %s", got.Timestamp, want.Timestamp)
	})

	t.Run("DeleteRemovesOnlyThatID", func(t *testing.T) {
		ctx := context.Background()
		repo := open(t)
		require.NoError(t, repo.Save(ctx, Incident("inc_1")))
		require.NoError(t, repo.Save(ctx, Incident("inc_2")))
		require.NoError(t, repo.Save(ctx, Incident("inc_3")))

		require.NoError(t, repo.Delete(ctx, "inc_2"))
		require.NoError(t, repo.Delete(ctx, "inc_2"))
		require.NoError(t, repo.Delete(ctx, "inc_missing"))

		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, incidents.IncidentID("inc_1"), list[0].ID)
		assert.Equal(t, incidents.IncidentID("inc_3"), list[1].ID)
	})

	t.Run("ConcurrentSavesAreNotLost", func(t *testing.T) {
		ctx := context.Background()
		repo := open(t)

		const n = 20
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- repo.Save(ctx, Incident(fmt.Sprintf("inc_%02d", i)))
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		list, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, n)
	})
}
