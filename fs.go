package hkpair

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by a Store for a key it does not hold.
var ErrNotFound = errors.New("hkpair: not found")

// Store persists opaque values by key.
type Store interface {
	Set(key string, value []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	KeysWithSuffix(suffix string) ([]string, error)
}

type fsStore struct {
	Path string
}

// NewFsStore keeps one file per key in dir.
func NewFsStore(dir string) (Store, error) {
	// Ensure that execute permission bit is set on all created dirs
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	return &fsStore{dir}, nil
}

func (fs *fsStore) Set(key string, value []byte) error {
	return os.WriteFile(fs.filePathToFile(key), value, 0600)
}

func (fs *fsStore) Get(key string) ([]byte, error) {
	b, err := os.ReadFile(fs.filePathToFile(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return b, err
}

// Delete removes the file for the corresponding key.
func (fs *fsStore) Delete(key string) error {
	err := os.Remove(fs.filePathToFile(key))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

func (fs *fsStore) KeysWithSuffix(suffix string) (keys []string, err error) {
	var entries []os.DirEntry

	if entries, err = os.ReadDir(fs.Path); err == nil {
		for _, entry := range entries {
			if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), suffix) {
				keys = append(keys, entry.Name())
			}
		}
	}

	return
}

func (fs *fsStore) filePathToFile(file string) string {
	return filepath.Join(fs.Path, sanitizeFilename(file))
}

// storer keeps the controller identity and the accessory pairings as
// JSON documents in a Store.
type storer struct {
	Store
}

const identityKey = "identity"

func (st *storer) Identity() (Identity, error) {
	var id Identity
	b, err := st.Get(identityKey)
	if err != nil {
		return id, err
	}

	err = json.Unmarshal(b, &id)

	return id, err
}

func (st *storer) SaveIdentity(id Identity) error {
	b, err := json.Marshal(&id)
	if err != nil {
		return err
	}

	return st.Set(identityKey, b)
}

// Pairing returns the pairing with the given name.
func (st *storer) Pairing(name string) (Pairing, error) {
	return st.pairingForKey(keyForPairingName(name))
}

// SavePairing saves the given pairing.
func (st *storer) SavePairing(pairing Pairing) error {
	b, err := json.Marshal(&pairing)
	if err != nil {
		return err
	}

	return st.Set(keyForPairingName(pairing.Name), b)
}

// DeletePairing deletes the pairing with a given name.
func (st *storer) DeletePairing(name string) error {
	return st.Delete(keyForPairingName(name))
}

// Pairings returns all known pairings. Unreadable entries are skipped.
func (st *storer) Pairings() []Pairing {
	var arr []Pairing
	if ks, err := st.KeysWithSuffix(".pairing"); err == nil {
		for _, k := range ks {
			if p, err := st.pairingForKey(k); err == nil {
				arr = append(arr, p)
			}
		}
	}

	return arr
}

func (st *storer) pairingForKey(key string) (p Pairing, err error) {
	var b []byte
	if b, err = st.Get(key); err == nil {
		err = json.Unmarshal(b, &p)
	}
	return
}

func keyForPairingName(s string) string {
	return hex.EncodeToString([]byte(s)) + ".pairing"
}

// sanitizeFilename returns a valid file name by removing invalid characters (e.g. colon ":" which is not allowed in file names on Windows)
func sanitizeFilename(filename string) string {
	return strings.Replace(filename, ":", "", -1)
}
