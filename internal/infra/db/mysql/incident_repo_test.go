package mysql

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/footprint-shield/internal/domain/incidents"
	"github.com/bryanwahyu/footprint-shield/internal/domain/incidents/incidentstest"
)

// testDSNEnv names a disposable database; its incidents table is emptied.
const testDSNEnv = "SHIELD_TEST_MYSQL_DSN"

func TestOpenFailsWhenServerIsUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := Open(ctx, "shield:secret@tcp(127.0.0.1:1)/shield?parseTime=true&timeout=1s")
	require.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "mysql ping")
}

func TestOpenRejectsMalformedDSN(t *testing.T) {
	_, err := Open(context.Background(), "not a dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql open")
}

func TestIncidentRepositoryContract(t *testing.T) {
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}
	incidentstest.Run(t, func(t *testing.T) domain.Repository {
		ctx := context.Background()
		db, err := Open(ctx, dsn)
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		_, err = db.ExecContext(ctx, `DELETE FROM incidents`)
		require.NoError(t, err)
		return NewIncidentRepository(db)
	})
}

func TestSaveOverwritesDuplicateID(t *testing.T) {
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}
	ctx := context.Background()
	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.ExecContext(ctx, `DELETE FROM incidents`)
	require.NoError(t, err)

	repo := NewIncidentRepository(db)
	in := incidentstest.Incident("inc_dup")
	require.NoError(t, repo.Save(ctx, in))
	in.Severity = "critical"
	require.NoError(t, repo.Save(ctx, in))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "critical", list[0].Severity)
}
