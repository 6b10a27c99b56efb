package contentcache

import (
	"context"
	"database/sql"
	"log"
	"time"

	"xtreamsync/internal/apperr"
	"xtreamsync/internal/db"
)

const slowOperationThreshold = 100 * time.Millisecond

// batchInsert runs insertFn(tx, item) for every item inside one transaction,
// logging and counting per-row failures by index. Empty input is a no-op
// returning 0. If at least one row succeeds the transaction commits and the
// success count is returned; if every row failed, it rolls back and returns
// an error.
func batchInsert[T any](ctx context.Context, conn *db.Conn, table string, items []T, insertFn func(*sql.Tx, int, T) error) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	start := time.Now()
	var inserted int
	err := conn.WithTx(ctx, func(tx *sql.Tx) error {
		for i, item := range items {
			if err := insertFn(tx, i, item); err != nil {
				log.Printf("contentcache: insert into %s failed at index %d: %v", table, i, err)
				continue
			}
			inserted++
		}
		if inserted == 0 {
			return apperr.Wrap(apperr.ErrDatabase, "failed to insert any items into %s", table)
		}
		return nil
	})
	if elapsed := time.Since(start); elapsed > slowOperationThreshold {
		log.Printf("contentcache: slow batch insert into %s took %s (%d/%d rows)", table, elapsed, inserted, len(items))
	}
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// batchUpdate mirrors batchInsert's commit-if-any-succeeded-else-rollback
// policy for bulk updates.
func batchUpdate[T any](ctx context.Context, conn *db.Conn, table string, items []T, updateFn func(*sql.Tx, int, T) error) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	start := time.Now()
	var updated int
	err := conn.WithTx(ctx, func(tx *sql.Tx) error {
		for i, item := range items {
			if err := updateFn(tx, i, item); err != nil {
				log.Printf("contentcache: update on %s failed at index %d: %v", table, i, err)
				continue
			}
			updated++
		}
		if updated == 0 {
			return apperr.Wrap(apperr.ErrDatabase, "failed to update any items in %s", table)
		}
		return nil
	})
	if elapsed := time.Since(start); elapsed > slowOperationThreshold {
		log.Printf("contentcache: slow batch update on %s took %s (%d/%d rows)", table, elapsed, updated, len(items))
	}
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// batchDelete always commits after iteration (delete is idempotent: a
// missing row is not itself a failure), returning the number of rows
// actually removed.
func batchDelete(ctx context.Context, conn *db.Conn, table string, ids []any, deleteFn func(*sql.Tx, int, any) (int64, error)) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	start := time.Now()
	var deleted int64
	err := conn.WithTx(ctx, func(tx *sql.Tx) error {
		for i, id := range ids {
			n, err := deleteFn(tx, i, id)
			if err != nil {
				log.Printf("contentcache: delete from %s failed at index %d: %v", table, i, err)
				continue
			}
			deleted += n
		}
		return nil
	})
	if elapsed := time.Since(start); elapsed > slowOperationThreshold {
		log.Printf("contentcache: slow batch delete on %s took %s", table, elapsed)
	}
	if err != nil {
		return 0, err
	}
	return int(deleted), nil
}

func anySlice[T any](items []T, pick func(T) any) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = pick(item)
	}
	return out
}
