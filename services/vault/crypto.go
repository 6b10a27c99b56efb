package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"xtreamsync/internal/apperr"
	"xtreamsync/models"
)

const (
	saltSize       = 16
	ivSize         = 16
	hmacSize       = 32
	pbkdf2Iters    = 100_000
	profileKeySize = 32
	minRecordSize  = saltSize + ivSize + hmacSize + aes.BlockSize // 80
)

// deriveProfileKey implements PBKDF2-HMAC-SHA256(master_key||profile_id, salt, 100000, 32).
func deriveProfileKey(masterKey []byte, profileID string, salt []byte) []byte {
	seed := append(append([]byte{}, masterKey...), []byte(profileID)...)
	return pbkdf2.Key(seed, salt, pbkdf2Iters, profileKeySize, sha256.New)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := make([]byte, padLen)
	for i := range padding {
		padding[i] = byte(padLen)
	}
	return append(data, padding...)
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty padded data")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) || padLen > aes.BlockSize {
		return nil, fmt.Errorf("invalid padding")
	}
	return data[:len(data)-padLen], nil
}

// encryptRecord produces the [salt|iv|hmac|ciphertext] layout for creds
// under the given master key and fresh profile id.
func encryptRecord(masterKey []byte, profileID string, creds models.Credentials) ([]byte, error) {
	plaintext, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("marshal credentials: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("generate iv: %w", err)
	}

	profileKey := deriveProfileKey(masterKey, profileID, salt)
	defer zero(profileKey)

	block, err := aes.NewCipher(profileKey)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cbc := cipher.NewCBCEncrypter(block, iv)
	cbc.CryptBlocks(ciphertext, padded)

	mac := hmac.New(sha256.New, profileKey)
	mac.Write(ciphertext)
	tag := mac.Sum(nil)

	out := make([]byte, 0, saltSize+ivSize+hmacSize+len(ciphertext))
	out = append(out, salt...)
	out = append(out, iv...)
	out = append(out, tag...)
	out = append(out, ciphertext...)
	return out, nil
}

// decryptRecord validates and decrypts the [salt|iv|hmac|ciphertext] layout.
// Blobs shorter than minRecordSize are routed to the legacy compatibility
// path by the caller instead.
func decryptRecord(masterKey []byte, profileID string, blob []byte) (models.Credentials, error) {
	if len(blob) < minRecordSize {
		return models.Credentials{}, apperr.Wrap(apperr.ErrIntegrity, "record too short")
	}
	salt := blob[0:saltSize]
	iv := blob[saltSize : saltSize+ivSize]
	tag := blob[saltSize+ivSize : saltSize+ivSize+hmacSize]
	ciphertext := blob[saltSize+ivSize+hmacSize:]

	if len(ciphertext)%aes.BlockSize != 0 {
		return models.Credentials{}, apperr.Wrap(apperr.ErrIntegrity, "ciphertext not block-aligned")
	}

	profileKey := deriveProfileKey(masterKey, profileID, salt)
	defer zero(profileKey)

	mac := hmac.New(sha256.New, profileKey)
	mac.Write(ciphertext)
	expected := mac.Sum(nil)
	if subtle.ConstantTimeCompare(expected, tag) != 1 {
		return models.Credentials{}, apperr.Wrap(apperr.ErrIntegrity, "HMAC verification failed - data may be corrupted")
	}

	block, err := aes.NewCipher(profileKey)
	if err != nil {
		return models.Credentials{}, fmt.Errorf("new cipher: %w", err)
	}
	plainPadded := make([]byte, len(ciphertext))
	cbc := cipher.NewCBCDecrypter(block, iv)
	cbc.CryptBlocks(plainPadded, ciphertext)

	plaintext, err := pkcs7Unpad(plainPadded)
	if err != nil {
		return models.Credentials{}, apperr.Wrap(apperr.ErrIntegrity, "invalid padding: %v", err)
	}
	defer zero(plaintext)

	var creds models.Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return models.Credentials{}, apperr.Wrap(apperr.ErrIntegrity, "decode credentials: %v", err)
	}
	return creds, nil
}

// decryptLegacyRecord reproduces the reference implementation's
// non-standard compatibility path for blobs below minRecordSize: the first
// 16 bytes are treated as an IV and every subsequent block is XORed with
// that same fixed iv[i%16] instead of standard CBC chaining. Retained for
// reading old records only; never used for writes.
func decryptLegacyRecord(masterKey []byte, blob []byte) (models.Credentials, error) {
	if len(blob) <= ivSize || (len(blob)-ivSize)%aes.BlockSize != 0 {
		return models.Credentials{}, apperr.Wrap(apperr.ErrIntegrity, "malformed legacy record")
	}
	iv := blob[:ivSize]
	ciphertext := blob[ivSize:]

	var key [32]byte
	copy(key[:], masterKey)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return models.Credentials{}, fmt.Errorf("new cipher: %w", err)
	}

	plainPadded := make([]byte, len(ciphertext))
	buf := make([]byte, aes.BlockSize)
	for off := 0; off < len(ciphertext); off += aes.BlockSize {
		block.Decrypt(buf, ciphertext[off:off+aes.BlockSize])
		for i := 0; i < aes.BlockSize; i++ {
			buf[i] ^= iv[i%ivSize]
		}
		copy(plainPadded[off:off+aes.BlockSize], buf)
	}

	plaintext, err := pkcs7Unpad(plainPadded)
	if err != nil {
		return models.Credentials{}, apperr.Wrap(apperr.ErrIntegrity, "invalid legacy padding: %v", err)
	}
	defer zero(plaintext)

	var creds models.Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return models.Credentials{}, apperr.Wrap(apperr.ErrIntegrity, "decode legacy credentials: %v", err)
	}
	return creds, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
