package contentcache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"xtreamsync/internal/apperr"
	"xtreamsync/models"
)

// SaveCategories upserts the category list for one content type, replacing
// any existing categories for that (profile, content type) pair. Xtream
// category listings are always full snapshots, so stale categories (ones
// no longer present in items) are pruned in the same transaction.
func (c *Cache) SaveCategories(ctx context.Context, profileID string, contentType models.ContentType, items []models.Category) (int, error) {
	table, err := categoryTable(contentType)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC().Format(time.RFC3339)

	seen := make([]any, 0, len(items)+1)
	seen = append(seen, profileID)
	for _, cat := range items {
		seen = append(seen, cat.CategoryID)
	}

	saved := 0
	err = c.conn.WithTx(ctx, func(tx *sql.Tx) error {
		for i, cat := range items {
			_, execErr := tx.ExecContext(ctx, fmt.Sprintf(`
				INSERT INTO %s (profile_id, category_id, category_name, parent_id, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(profile_id, category_id) DO UPDATE SET
					category_name=excluded.category_name, parent_id=excluded.parent_id, updated_at=excluded.updated_at`, table),
				profileID, cat.CategoryID, cat.CategoryName, cat.ParentID, now, now)
			if execErr != nil {
				return apperr.Wrap(apperr.ErrDatabase, "save category %d: %v", i, execErr)
			}
			saved++
		}
		if len(items) > 0 {
			ph := placeholders(len(items))
			_, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE profile_id = ? AND category_id NOT IN (%s)`, table, ph), seen...)
			return err
		}
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE profile_id = ?`, table), profileID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return saved, nil
}

func scanCategory(row interface{ Scan(...any) error }, contentType models.ContentType) (models.Category, error) {
	var cat models.Category
	if err := row.Scan(&cat.ProfileID, &cat.CategoryID, &cat.CategoryName, &cat.ParentID); err != nil {
		return models.Category{}, err
	}
	cat.ContentType = contentType
	return cat, nil
}

// GetCategories lists the categories for one content type, ordered by
// name (case-insensitive).
func (c *Cache) GetCategories(ctx context.Context, profileID string, contentType models.ContentType) ([]models.Category, error) {
	table, err := categoryTable(contentType)
	if err != nil {
		return nil, err
	}
	var out []models.Category
	err = c.conn.WithConn(func(sqlDB *sql.DB) error {
		rows, err := sqlDB.QueryContext(ctx, fmt.Sprintf(`
			SELECT profile_id, category_id, category_name, parent_id FROM %s
			WHERE profile_id = ? ORDER BY category_name COLLATE NOCASE ASC`, table), profileID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			cat, err := scanCategory(rows, contentType)
			if err != nil {
				return err
			}
			out = append(out, cat)
		}
		return rows.Err()
	})
	return out, err
}

// GetCategoriesWithCounts joins each category to its content table to
// populate ItemCount, the shape used by catalog navigation UIs.
func (c *Cache) GetCategoriesWithCounts(ctx context.Context, profileID string, contentType models.ContentType) ([]models.Category, error) {
	catTable, err := categoryTable(contentType)
	if err != nil {
		return nil, err
	}
	itemTable, _, err := contentTable(contentType)
	if err != nil {
		return nil, err
	}

	var out []models.Category
	err = c.conn.WithConn(func(sqlDB *sql.DB) error {
		rows, err := sqlDB.QueryContext(ctx, fmt.Sprintf(`
			SELECT cat.profile_id, cat.category_id, cat.category_name, cat.parent_id,
			       COUNT(item.category_id) AS item_count
			FROM %s cat
			LEFT JOIN %s item ON item.profile_id = cat.profile_id AND item.category_id = cat.category_id
			WHERE cat.profile_id = ?
			GROUP BY cat.category_id
			ORDER BY cat.category_name COLLATE NOCASE ASC`, catTable, itemTable), profileID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var cat models.Category
			if err := rows.Scan(&cat.ProfileID, &cat.CategoryID, &cat.CategoryName, &cat.ParentID, &cat.ItemCount); err != nil {
				return err
			}
			cat.ContentType = contentType
			out = append(out, cat)
		}
		return rows.Err()
	})
	return out, err
}

// DeleteCategories removes categories by id for one content type. A nil
// slice deletes all categories of that type for the profile.
func (c *Cache) DeleteCategories(ctx context.Context, profileID string, contentType models.ContentType, categoryIDs []string) (int, error) {
	table, err := categoryTable(contentType)
	if err != nil {
		return 0, err
	}
	if categoryIDs != nil && len(categoryIDs) == 0 {
		return 0, nil
	}

	var n int64
	err = c.conn.WithTx(ctx, func(tx *sql.Tx) error {
		var res sql.Result
		var execErr error
		if categoryIDs == nil {
			res, execErr = tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE profile_id = ?`, table), profileID)
		} else {
			args := make([]any, 0, len(categoryIDs)+1)
			args = append(args, profileID)
			for _, id := range categoryIDs {
				args = append(args, id)
			}
			res, execErr = tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE profile_id = ? AND category_id IN (%s)`, table, placeholders(len(categoryIDs))), args...)
		}
		if execErr != nil {
			return execErr
		}
		n, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrDatabase, "delete categories: %v", err)
	}
	return int(n), nil
}
