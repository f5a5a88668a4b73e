// Package securefile reads and writes passphrase encrypted JSON files.
// Keys are derived with Argon2id and the payload is sealed with XChaCha20-Poly1305.
package securefile

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const envelopeVersion = 1

// ErrInvalidPassphraseOrCorrupt is returned when the envelope cannot be opened.
var ErrInvalidPassphraseOrCorrupt = errors.New("invalid passphrase or corrupted file")

// Envelope is the on-disk format.
type Envelope struct {
	Version int `json:"version"`

	ArgonTime    uint32 `json:"argon_time"`
	ArgonMemory  uint32 `json:"argon_memory_kib"`
	ArgonThreads uint8  `json:"argon_threads"`
	ArgonKeyLen  uint32 `json:"argon_key_len"`
	SaltB64      string `json:"salt_b64"`

	NonceB64 string `json:"nonce_b64"`
	CTB64    string `json:"ct_b64"`
}

// KDF holds the Argon2id cost parameters used when writing.
type KDF struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
}

var DefaultKDF = KDF{
	Time:    2,
	Memory:  64 * 1024,
	Threads: 1,
	KeyLen:  32,
}

// WriteEncryptedJSON marshals v, encrypts it with passphrase and writes it
// atomically to path. The file path is bound into the ciphertext as additional data.
func WriteEncryptedJSON[T any](path string, v T, passphrase []byte, kdf KDF) error {
	if len(passphrase) == 0 {
		return errors.New("securefile: empty passphrase")
	}
	if kdf.KeyLen == 0 {
		kdf = DefaultKDF
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}

	plain, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	defer zeroBytes(plain)

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("rand salt: %w", err)
	}

	key := argon2.IDKey(passphrase, salt, kdf.Time, kdf.Memory, kdf.Threads, kdf.KeyLen)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return fmt.Errorf("aead: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("rand nonce: %w", err)
	}

	ct := aead.Seal(nil, nonce, plain, additionalData(path))

	out := Envelope{
		Version:      envelopeVersion,
		ArgonTime:    kdf.Time,
		ArgonMemory:  kdf.Memory,
		ArgonThreads: kdf.Threads,
		ArgonKeyLen:  kdf.KeyLen,
		SaltB64:      base64.StdEncoding.EncodeToString(salt),
		NonceB64:     base64.StdEncoding.EncodeToString(nonce),
		CTB64:        base64.StdEncoding.EncodeToString(ct),
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	return atomicWriteFile(path, b, 0o600)
}

// ReadEncryptedJSON opens the envelope at path and unmarshals the payload into T.
func ReadEncryptedJSON[T any](path string, passphrase []byte) (T, error) {
	var zero T

	if len(passphrase) == 0 {
		return zero, errors.New("securefile: empty passphrase")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return zero, fmt.Errorf("read file: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return zero, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != envelopeVersion {
		return zero, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}

	salt, err := base64.StdEncoding.DecodeString(env.SaltB64)
	if err != nil {
		return zero, fmt.Errorf("decode salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(env.NonceB64)
	if err != nil {
		return zero, fmt.Errorf("decode nonce: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(env.CTB64)
	if err != nil {
		return zero, fmt.Errorf("decode ciphertext: %w", err)
	}

	key := argon2.IDKey(passphrase, salt, env.ArgonTime, env.ArgonMemory, env.ArgonThreads, env.ArgonKeyLen)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return zero, fmt.Errorf("aead: %w", err)
	}

	plain, err := aead.Open(nil, nonce, ct, additionalData(path))
	if err != nil {
		return zero, ErrInvalidPassphraseOrCorrupt
	}
	defer zeroBytes(plain)

	var out T
	if err := json.Unmarshal(plain, &out); err != nil {
		return zero, fmt.Errorf("unmarshal json: %w", err)
	}
	return out, nil
}

func additionalData(path string) []byte {
	return []byte(filepath.Base(path))
}

func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	_ = os.Remove(tmp)

	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
