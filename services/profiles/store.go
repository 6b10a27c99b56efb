// Package profiles implements CRUD and the active-profile singleton
// invariant over the profiles table.
package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"xtreamsync/internal/apperr"
	"xtreamsync/internal/db"
	"xtreamsync/models"
	"xtreamsync/services/vault"
)

// Store provides profile CRUD backed by a single SQLite connection and a
// credential vault for encrypting credentials at rest.
type Store struct {
	conn  *db.Conn
	vault *vault.Vault
}

// New constructs a profile store.
func New(conn *db.Conn, v *vault.Vault) *Store {
	return &Store{conn: conn, vault: v}
}

func validateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < 1 || len(trimmed) > 100 {
		return "", apperr.Wrap(apperr.ErrValidation, "name must be 1-100 characters")
	}
	return trimmed, nil
}

func validateURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return apperr.Wrap(apperr.ErrValidation, "invalid url: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return apperr.Wrap(apperr.ErrValidation, "url scheme must be http or https")
	}
	if u.Host == "" {
		return apperr.Wrap(apperr.ErrValidation, "url must have a non-empty host")
	}
	return nil
}

// Create validates req, persists a new profile row with empty credentials,
// then encrypts and stores the credentials through the vault. Returns the
// new profile id.
func (s *Store) Create(ctx context.Context, req models.CreateProfileRequest) (string, error) {
	name, err := validateName(req.Name)
	if err != nil {
		return "", err
	}
	if err := validateURL(req.URL); err != nil {
		return "", err
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return "", apperr.Wrap(apperr.ErrValidation, "username and password are required")
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	err = s.conn.WithTx(ctx, func(tx *sql.Tx) error {
		exists, err := nameExistsTx(tx, name, "")
		if err != nil {
			return err
		}
		if exists {
			return apperr.Wrap(apperr.ErrDuplicateName, "profile name %q already exists", name)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO profiles (id, name, url, username, encrypted_credentials, created_at, updated_at, last_used, is_active)
			VALUES (?, ?, ?, ?, NULL, ?, ?, NULL, 0)`,
			id, name, req.URL, req.Username, now.Format(time.RFC3339), now.Format(time.RFC3339))
		return err
	})
	if err != nil {
		return "", err
	}

	creds := models.Credentials{URL: req.URL, Username: req.Username, Password: req.Password}
	if err := s.vault.StoreInDB(ctx, s, id, creds); err != nil {
		return "", fmt.Errorf("store credentials: %w", err)
	}
	return id, nil
}

func nameExistsTx(tx *sql.Tx, name, excludeID string) (bool, error) {
	query := `SELECT COUNT(1) FROM profiles WHERE name = ?`
	args := []any{name}
	if excludeID != "" {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}
	var count int
	if err := tx.QueryRow(query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// NameExists reports whether name is already used by a profile other than
// excludeID (pass "" to check unconditionally).
func (s *Store) NameExists(ctx context.Context, name, excludeID string) (bool, error) {
	var exists bool
	err := s.conn.WithConn(func(sqlDB *sql.DB) error {
		query := `SELECT COUNT(1) FROM profiles WHERE name = ?`
		args := []any{name}
		if excludeID != "" {
			query += ` AND id != ?`
			args = append(args, excludeID)
		}
		var count int
		if err := sqlDB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
			return err
		}
		exists = count > 0
		return nil
	})
	return exists, err
}

// Update applies patch to the profile, always bumping updated_at, and
// returns apperr.ErrNotFound if no row matched.
func (s *Store) Update(ctx context.Context, id string, patch models.UpdateProfilePatch) error {
	now := time.Now().UTC()

	return s.conn.WithTx(ctx, func(tx *sql.Tx) error {
		sets := []string{"updated_at = ?"}
		args := []any{now.Format(time.RFC3339)}

		if patch.Name != nil {
			name, err := validateName(*patch.Name)
			if err != nil {
				return err
			}
			exists, err := nameExistsTx(tx, name, id)
			if err != nil {
				return err
			}
			if exists {
				return apperr.Wrap(apperr.ErrDuplicateName, "profile name %q already exists", name)
			}
			sets = append(sets, "name = ?")
			args = append(args, name)
		}
		if patch.URL != nil {
			if err := validateURL(*patch.URL); err != nil {
				return err
			}
			sets = append(sets, "url = ?")
			args = append(args, *patch.URL)
		}
		if patch.Username != nil {
			if strings.TrimSpace(*patch.Username) == "" {
				return apperr.Wrap(apperr.ErrValidation, "username must not be empty")
			}
			sets = append(sets, "username = ?")
			args = append(args, *patch.Username)
		}

		args = append(args, id)
		res, err := tx.ExecContext(ctx, fmt.Sprintf(`UPDATE profiles SET %s WHERE id = ?`, strings.Join(sets, ", ")), args...)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperr.Wrap(apperr.ErrNotFound, "profile %s not found", id)
		}
		return nil
	})
}

// UpdatePassword re-encrypts and stores new credentials for an existing
// profile when only the password (or another credential field) changed.
func (s *Store) UpdatePassword(ctx context.Context, id string, creds models.Credentials) error {
	return s.vault.StoreInDB(ctx, s, id, creds)
}

// Delete removes a profile; dependents cascade via foreign keys.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.conn.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperr.Wrap(apperr.ErrNotFound, "profile %s not found", id)
		}
		return nil
	})
}

func scanProfile(row interface{ Scan(...any) error }) (models.Profile, error) {
	var p models.Profile
	var createdAt, updatedAt string
	var lastUsed sql.NullString
	var isActive int
	if err := row.Scan(&p.ID, &p.Name, &p.URL, &p.Username, &createdAt, &updatedAt, &lastUsed, &isActive); err != nil {
		return models.Profile{}, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if lastUsed.Valid {
		t, err := time.Parse(time.RFC3339, lastUsed.String)
		if err == nil {
			p.LastUsed = &t
		}
	}
	p.IsActive = isActive != 0
	return p, nil
}

const profileColumns = `id, name, url, username, created_at, updated_at, last_used, is_active`

// Get returns a single profile by id.
func (s *Store) Get(ctx context.Context, id string) (models.Profile, error) {
	var profile models.Profile
	err := s.conn.WithConn(func(sqlDB *sql.DB) error {
		row := sqlDB.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s FROM profiles WHERE id = ?`, profileColumns), id)
		p, err := scanProfile(row)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.Wrap(apperr.ErrNotFound, "profile %s not found", id)
		}
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	return profile, err
}

// List returns every profile ordered by name.
func (s *Store) List(ctx context.Context) ([]models.Profile, error) {
	var out []models.Profile
	err := s.conn.WithConn(func(sqlDB *sql.DB) error {
		rows, err := sqlDB.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM profiles ORDER BY name COLLATE NOCASE ASC`, profileColumns))
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			p, err := scanProfile(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	return out, err
}

// SetActive deactivates every profile, then activates id and touches its
// last_used timestamp, all within one transaction. Rolls back if id does
// not exist.
func (s *Store) SetActive(ctx context.Context, id string) error {
	return s.conn.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE profiles SET is_active = 0`); err != nil {
			return err
		}
		now := time.Now().UTC().Format(time.RFC3339)
		res, err := tx.ExecContext(ctx, `UPDATE profiles SET is_active = 1, last_used = ? WHERE id = ?`, now, id)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperr.Wrap(apperr.ErrNotFound, "profile %s not found", id)
		}
		return nil
	})
}

// GetActive returns the single active profile, if any.
func (s *Store) GetActive(ctx context.Context) (models.Profile, bool, error) {
	var profile models.Profile
	found := false
	err := s.conn.WithConn(func(sqlDB *sql.DB) error {
		row := sqlDB.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s FROM profiles WHERE is_active = 1 LIMIT 1`, profileColumns))
		p, err := scanProfile(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		profile = p
		found = true
		return nil
	})
	return profile, found, err
}

// DeactivateAll clears is_active on every profile.
func (s *Store) DeactivateAll(ctx context.Context) error {
	return s.conn.WithConn(func(sqlDB *sql.DB) error {
		_, err := sqlDB.ExecContext(ctx, `UPDATE profiles SET is_active = 0`)
		return err
	})
}

// TouchLastUsed updates only the last_used timestamp.
func (s *Store) TouchLastUsed(ctx context.Context, id string) error {
	return s.conn.WithConn(func(sqlDB *sql.DB) error {
		now := time.Now().UTC().Format(time.RFC3339)
		res, err := sqlDB.ExecContext(ctx, `UPDATE profiles SET last_used = ? WHERE id = ?`, now, id)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperr.Wrap(apperr.ErrNotFound, "profile %s not found", id)
		}
		return nil
	})
}

// GetEncryptedCredentials and SetEncryptedCredentials implement
// vault.ProfileCredentialRepo directly against the profiles table.
func (s *Store) GetEncryptedCredentials(ctx context.Context, profileID string) ([]byte, error) {
	var blob []byte
	err := s.conn.WithConn(func(sqlDB *sql.DB) error {
		return sqlDB.QueryRowContext(ctx, `SELECT encrypted_credentials FROM profiles WHERE id = ?`, profileID).Scan(&blob)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Wrap(apperr.ErrNotFound, "profile %s not found", profileID)
	}
	return blob, err
}

func (s *Store) SetEncryptedCredentials(ctx context.Context, profileID string, blob []byte) error {
	return s.conn.WithConn(func(sqlDB *sql.DB) error {
		res, err := sqlDB.ExecContext(ctx, `UPDATE profiles SET encrypted_credentials = ? WHERE id = ?`, blob, profileID)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperr.Wrap(apperr.ErrNotFound, "profile %s not found", profileID)
		}
		return nil
	})
}
