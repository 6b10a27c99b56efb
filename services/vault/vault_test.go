package vault

import (
	"context"
	"crypto/aes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xtreamsync/internal/apperr"
	"xtreamsync/models"
)

func testVault(t *testing.T) *Vault {
	t.Helper()
	key := make([]byte, masterKeySize)
	return &Vault{serviceName: "test", masterKey: key, cache: make(map[string]models.Credentials)}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	v := testVault(t)
	creds := models.Credentials{URL: "http://x", Username: "u", Password: "s3cret"}

	blob, err := v.Encrypt("p1", creds)
	require.NoError(t, err)

	got, err := v.Decrypt("p1", blob)
	require.NoError(t, err)
	assert.Equal(t, creds, got)
}

func TestDecryptWrongProfileFails(t *testing.T) {
	v := testVault(t)
	creds := models.Credentials{URL: "http://x", Username: "u", Password: "s3cret"}

	blob, err := v.Encrypt("p1", creds)
	require.NoError(t, err)

	_, err = v.Decrypt("p2", blob)
	assert.ErrorIs(t, err, apperr.ErrIntegrity)
}

func TestTamperAfterSaltIVCausesIntegrityError(t *testing.T) {
	v := testVault(t)
	creds := models.Credentials{URL: "http://x", Username: "u", Password: "s3cret"}

	blob, err := v.Encrypt("P1", creds)
	require.NoError(t, err)
	require.Greater(t, len(blob), 50)

	blob[50] ^= 0xFF

	_, err = v.Decrypt("P1", blob)
	assert.ErrorIs(t, err, apperr.ErrIntegrity)
}

func TestEncryptDecryptIdempotentOverCycles(t *testing.T) {
	v := testVault(t)
	creds := models.Credentials{URL: "http://x", Username: "u", Password: "p"}

	current := creds
	for i := 0; i < 5; i++ {
		blob, err := v.Encrypt("p1", current)
		require.NoError(t, err)
		decoded, err := v.Decrypt("p1", blob)
		require.NoError(t, err)
		current = decoded
	}
	assert.Equal(t, creds, current)
}

func TestCredentialTamperDoesNotPopulateCache(t *testing.T) {
	v := testVault(t)
	creds := models.Credentials{URL: "http://x", Username: "u", Password: "s3cret"}

	blob, err := v.Encrypt("P1", creds)
	require.NoError(t, err)
	blob[50] ^= 0xFF

	repo := &fakeRepo{blob: blob}
	_, err = v.RetrieveFromDB(context.Background(), repo, "P1")
	assert.Error(t, err)

	_, ok := v.GetCached("P1")
	assert.False(t, ok)
}

func TestLegacyDecryptPath(t *testing.T) {
	v := testVault(t)
	creds := models.Credentials{URL: "http://l", Username: "u"}

	// Hand-construct a legacy record: iv(16) + ciphertext encrypted with
	// the same fixed-iv XOR chaining the compatibility path expects.
	blob := legacyEncryptForTest(t, v.masterKey, creds)
	require.Less(t, len(blob), minRecordSize)

	got, err := v.Decrypt("irrelevant", blob)
	require.NoError(t, err)
	assert.Equal(t, creds, got)
}

type fakeRepo struct {
	blob []byte
}

func (f *fakeRepo) GetEncryptedCredentials(_ context.Context, _ string) ([]byte, error) {
	return f.blob, nil
}

func (f *fakeRepo) SetEncryptedCredentials(_ context.Context, _ string, blob []byte) error {
	f.blob = blob
	return nil
}

// legacyEncryptForTest builds a pre-v2 credential record: iv(16) followed
// by ciphertext produced with the same non-standard fixed-iv XOR chaining
// decryptLegacyRecord expects, so the compatibility path can be exercised
// without a real historical fixture.
func legacyEncryptForTest(t *testing.T, masterKey []byte, creds models.Credentials) []byte {
	t.Helper()
	plaintext, err := json.Marshal(creds)
	require.NoError(t, err)
	padded := pkcs7Pad(plaintext, aes.BlockSize)

	iv := make([]byte, ivSize)
	for i := range iv {
		iv[i] = byte(i + 1)
	}

	var key [32]byte
	copy(key[:], masterKey)
	block, err := aes.NewCipher(key[:])
	require.NoError(t, err)

	ciphertext := make([]byte, len(padded))
	buf := make([]byte, aes.BlockSize)
	for off := 0; off < len(padded); off += aes.BlockSize {
		copy(buf, padded[off:off+aes.BlockSize])
		for i := 0; i < aes.BlockSize; i++ {
			buf[i] ^= iv[i%ivSize]
		}
		block.Encrypt(ciphertext[off:off+aes.BlockSize], buf)
	}

	out := make([]byte, 0, ivSize+len(ciphertext))
	out = append(out, iv...)
	out = append(out, ciphertext...)
	return out
}
