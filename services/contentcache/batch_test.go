package contentcache

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xtreamsync/internal/db"
)

func TestBatchInsertEmptyIsNoop(t *testing.T) {
	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	n, err := batchInsert(context.Background(), conn, "xtream_channels", []int{}, func(tx *sql.Tx, i int, item int) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestBatchInsertCommitsPartialSuccess(t *testing.T) {
	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx := context.Background()
	require.NoError(t, conn.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO profiles (id, name, url, username, created_at, updated_at) VALUES ('p1','p1','http://x','u','t','t')`)
		return err
	}))

	items := []int64{1, 2, 3}
	n, err := batchInsert(ctx, conn, "xtream_channels", items, func(tx *sql.Tx, i int, id int64) error {
		if id == 2 {
			return assert.AnError
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO xtream_channels (profile_id, stream_id, name, created_at, updated_at) VALUES ('p1', ?, 'n', 't', 't')`, id)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBatchInsertRollsBackWhenAllFail(t *testing.T) {
	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx := context.Background()
	_, err = batchInsert(ctx, conn, "xtream_channels", []int64{1, 2}, func(tx *sql.Tx, i int, id int64) error {
		return assert.AnError
	})
	assert.Error(t, err)
}

func TestBatchDeleteCountsRemovedRows(t *testing.T) {
	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx := context.Background()
	require.NoError(t, conn.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO profiles (id, name, url, username, created_at, updated_at) VALUES ('p1','p1','http://x','u','t','t')`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO xtream_channels (profile_id, stream_id, name, created_at, updated_at) VALUES ('p1', 1, 'n', 't', 't')`)
		return err
	}))

	n, err := batchDelete(ctx, conn, "xtream_channels", []any{int64(1), int64(2)}, func(tx *sql.Tx, i int, id any) (int64, error) {
		res, err := tx.ExecContext(ctx, `DELETE FROM xtream_channels WHERE stream_id = ?`, id)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBatchDeleteEmptyIsNoop(t *testing.T) {
	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	n, err := batchDelete(context.Background(), conn, "xtream_channels", nil, func(tx *sql.Tx, i int, id any) (int64, error) {
		return 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestAnySlice(t *testing.T) {
	out := anySlice([]int{1, 2, 3}, func(i int) any { return i * 2 })
	assert.Equal(t, []any{2, 4, 6}, out)
}
