// Package vault provides per-profile authenticated encryption of server
// credentials, backed by an OS keyring for the master key.
package vault

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"

	"xtreamsync/internal/apperr"
	"xtreamsync/models"
)

const masterKeyAccount = "master_key"
const masterKeySize = 32

// ProfileCredentialRepo is the persistence boundary the vault uses for
// store_in_db / retrieve_from_db: it reads and writes only the opaque
// ciphertext column of a profile row.
type ProfileCredentialRepo interface {
	GetEncryptedCredentials(ctx context.Context, profileID string) ([]byte, error)
	SetEncryptedCredentials(ctx context.Context, profileID string, blob []byte) error
}

// Vault persists per-profile credentials under confidentiality and
// integrity guarantees, and exposes a process-local plaintext cache.
type Vault struct {
	serviceName string
	masterKey   []byte

	cacheMu sync.RWMutex
	cache   map[string]models.Credentials
}

// New creates a vault against the given OS-keyring service identifier,
// generating and storing a fresh master key on first use.
func New(serviceName string) (*Vault, error) {
	key, err := getOrCreateMasterKey(serviceName)
	if err != nil {
		return nil, err
	}
	return &Vault{
		serviceName: serviceName,
		masterKey:   key,
		cache:       make(map[string]models.Credentials),
	}, nil
}

// NewWithMasterKey builds a vault around an already-derived master key,
// bypassing the OS keyring. Intended for tests and for hosts that manage
// the master key through another channel.
func NewWithMasterKey(serviceName string, masterKey []byte) (*Vault, error) {
	if len(masterKey) != masterKeySize {
		return nil, fmt.Errorf("master key must be %d bytes", masterKeySize)
	}
	return &Vault{
		serviceName: serviceName,
		masterKey:   append([]byte{}, masterKey...),
		cache:       make(map[string]models.Credentials),
	}, nil
}

func getOrCreateMasterKey(serviceName string) ([]byte, error) {
	encoded, err := keyring.Get(serviceName, masterKeyAccount)
	if err == nil {
		key, decErr := base64.StdEncoding.DecodeString(encoded)
		if decErr != nil {
			return nil, fmt.Errorf("decode master key: %w", decErr)
		}
		if len(key) != masterKeySize {
			return nil, fmt.Errorf("master key has unexpected length %d", len(key))
		}
		return key, nil
	}
	if err != keyring.ErrNotFound {
		// Keyring unavailable is a fatal condition for the vault.
		return nil, fmt.Errorf("keyring unavailable: %w", err)
	}

	key := make([]byte, masterKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate master key: %w", err)
	}
	encoded = base64.StdEncoding.EncodeToString(key)
	if err := keyring.Set(serviceName, masterKeyAccount, encoded); err != nil {
		return nil, fmt.Errorf("store master key: %w", err)
	}
	return key, nil
}

// Encrypt serializes credentials as JSON and returns the
// [salt|iv|hmac|ciphertext] record for the given profile.
func (v *Vault) Encrypt(profileID string, creds models.Credentials) ([]byte, error) {
	return encryptRecord(v.masterKey, profileID, creds)
}

// Decrypt validates and decrypts a record produced by Encrypt. Blobs
// shorter than the current minimum record size fall through to the legacy
// compatibility path.
func (v *Vault) Decrypt(profileID string, blob []byte) (models.Credentials, error) {
	if len(blob) < minRecordSize {
		return decryptLegacyRecord(v.masterKey, blob)
	}
	return decryptRecord(v.masterKey, profileID, blob)
}

// Cache stores plaintext credentials in the process-local cache.
func (v *Vault) Cache(profileID string, creds models.Credentials) {
	v.cacheMu.Lock()
	defer v.cacheMu.Unlock()
	v.cache[profileID] = creds
}

// GetCached returns the cached plaintext credentials for a profile, if any.
func (v *Vault) GetCached(profileID string) (models.Credentials, bool) {
	v.cacheMu.RLock()
	defer v.cacheMu.RUnlock()
	c, ok := v.cache[profileID]
	return c, ok
}

// ClearCached removes one profile's cached plaintext credentials.
func (v *Vault) ClearCached(profileID string) {
	v.cacheMu.Lock()
	defer v.cacheMu.Unlock()
	delete(v.cache, profileID)
}

// ClearAll clears the entire plaintext cache.
func (v *Vault) ClearAll() {
	v.cacheMu.Lock()
	defer v.cacheMu.Unlock()
	v.cache = make(map[string]models.Credentials)
}

// SecureWipe clears the in-memory plaintext cache and overwrites the
// master-key buffer with zeros. Call on vault shutdown or explicit
// UI-triggered logout.
func (v *Vault) SecureWipe() {
	v.ClearAll()
	zero(v.masterKey)
}

// StoreInDB encrypts creds for profileID and writes the ciphertext through
// repo, also populating the plaintext cache.
func (v *Vault) StoreInDB(ctx context.Context, repo ProfileCredentialRepo, profileID string, creds models.Credentials) error {
	blob, err := v.Encrypt(profileID, creds)
	if err != nil {
		return fmt.Errorf("encrypt credentials: %w", err)
	}
	if err := repo.SetEncryptedCredentials(ctx, profileID, blob); err != nil {
		return err
	}
	v.Cache(profileID, creds)
	return nil
}

// RetrieveFromDB reads the ciphertext through repo, decrypts it, and
// populates the plaintext cache as a side effect.
func (v *Vault) RetrieveFromDB(ctx context.Context, repo ProfileCredentialRepo, profileID string) (models.Credentials, error) {
	blob, err := repo.GetEncryptedCredentials(ctx, profileID)
	if err != nil {
		return models.Credentials{}, err
	}
	creds, err := v.Decrypt(profileID, blob)
	if err != nil {
		return models.Credentials{}, apperr.Wrap(apperr.ErrIntegrity, "retrieve credentials for %s: %v", profileID, err)
	}
	v.Cache(profileID, creds)
	return creds, nil
}
