package history

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecer struct {
	stmts []string
	fail  error
}

func (r *recordingExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.stmts = append(r.stmts, sql)
	return pgconn.NewCommandTag("CREATE TABLE"), r.fail
}

func TestEnsureSchema(t *testing.T) {
	db := &recordingExecer{}

	require.NoError(t, EnsureSchema(context.Background(), db))

	require.Len(t, db.stmts, 2)
	assert.Contains(t, db.stmts[0], "CREATE TABLE IF NOT EXISTS connection_events")
	assert.Contains(t, db.stmts[0], "id          UUID PRIMARY KEY")
	assert.Contains(t, db.stmts[1], "CREATE INDEX IF NOT EXISTS")
}

func TestEnsureSchema_Error(t *testing.T) {
	db := &recordingExecer{fail: errors.New("permission denied")}

	err := EnsureSchema(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ensure history schema")
	assert.Len(t, db.stmts, 1)
}
