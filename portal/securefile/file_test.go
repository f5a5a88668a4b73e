package securefile_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/securefile"
	"github.com/zeebo/assert"
)

type payload struct {
	Name    string   `json:"name"`
	Secrets []string `json:"secrets"`
}

// cheap parameters keep the tests fast
var testKDF = securefile.KDF{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "keystore.json")
	in := payload{Name: "demo", Secrets: []string{"//Alice", "//Bob"}}

	assert.NoError(t, securefile.WriteEncryptedJSON(path, in, []byte("correct horse"), testKDF))

	info, err := os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, info.Mode().Perm(), os.FileMode(0o600))

	out, err := securefile.ReadEncryptedJSON[payload](path, []byte("correct horse"))
	assert.NoError(t, err)
	assert.DeepEqual(t, out, in)
}

func TestReadWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.json")
	assert.NoError(t, securefile.WriteEncryptedJSON(path, payload{Name: "demo"}, []byte("correct horse"), testKDF))

	_, err := securefile.ReadEncryptedJSON[payload](path, []byte("battery staple"))
	assert.True(t, errors.Is(err, securefile.ErrInvalidPassphraseOrCorrupt))
}

func TestReadRenamedFileFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	assert.NoError(t, securefile.WriteEncryptedJSON(path, payload{Name: "demo"}, []byte("pw"), testKDF))

	moved := filepath.Join(dir, "b.json")
	assert.NoError(t, os.Rename(path, moved))

	_, err := securefile.ReadEncryptedJSON[payload](moved, []byte("pw"))
	assert.True(t, errors.Is(err, securefile.ErrInvalidPassphraseOrCorrupt))
}

func TestEmptyPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.json")
	assert.Error(t, securefile.WriteEncryptedJSON(path, payload{}, nil, testKDF))

	_, err := securefile.ReadEncryptedJSON[payload](path, nil)
	assert.Error(t, err)
}

func TestReadUnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.json")
	assert.NoError(t, os.WriteFile(path, []byte(`{"version":9}`), 0o600))

	_, err := securefile.ReadEncryptedJSON[payload](path, []byte("pw"))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, securefile.ErrInvalidPassphraseOrCorrupt))
}
