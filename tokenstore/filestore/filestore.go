// Package filestore keeps the session in a single JSON file, optionally sealed with a
// passphrase (scrypt key derivation, NaCl secretbox).
package filestore

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-dolar-client/internal/errors"
	"github.com/jrsteele09/go-dolar-client/tokenstore"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

var _ tokenstore.Store = (*FileStore)(nil)

const (
	saltLen  = 16
	nonceLen = 24
	keyLen   = 32

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var sealedMagic = []byte("DLS1")

type FileStore struct {
	path       string
	passphrase string
	salt       []byte
	key        *[keyLen]byte
	values     map[string]string
	lock       sync.Mutex
}

type Option func(*FileStore)

// WithPassphrase seals the file. An empty passphrase keeps plain JSON.
func WithPassphrase(passphrase string) Option {
	return func(fs *FileStore) {
		fs.passphrase = passphrase
	}
}

// New opens the store at path, loading any existing contents.
func New(path string, options ...Option) (*FileStore, error) {
	fs := &FileStore{path: path, values: make(map[string]string)}
	for _, opt := range options {
		opt(fs)
	}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) Get(_ context.Context, key tokenstore.Key) (string, bool, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	v, ok := fs.values[string(key)]
	return v, ok, nil
}

func (fs *FileStore) Set(_ context.Context, key tokenstore.Key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	prev, had := fs.values[string(key)]
	fs.values[string(key)] = value
	if err := fs.flush(); err != nil {
		fs.rollback(key, prev, had)
		return err
	}
	return nil
}

func (fs *FileStore) Remove(_ context.Context, key tokenstore.Key) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	prev, ok := fs.values[string(key)]
	if !ok {
		return nil
	}
	delete(fs.values, string(key))
	if err := fs.flush(); err != nil {
		fs.rollback(key, prev, true)
		return err
	}
	return nil
}

// rollback keeps the map in step with the file after a failed flush. Caller holds lock.
func (fs *FileStore) rollback(key tokenstore.Key, prev string, had bool) {
	if had {
		fs.values[string(key)] = prev
		return
	}
	delete(fs.values, string(key))
}

// Path returns the backing file.
func (fs *FileStore) Path() string {
	return fs.path
}

func (fs *FileStore) load() error {
	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return fs.initKey(nil)
	}
	if err != nil {
		return pkgerrors.Wrap(err, "[filestore] read")
	}
	if len(data) == 0 {
		return fs.initKey(nil)
	}

	if bytes.HasPrefix(data, sealedMagic) {
		if fs.passphrase == "" {
			return errors.Wrapf(errors.ErrCorruptState, "[filestore] %s is sealed and no passphrase was given", fs.path)
		}
		data, err = fs.open(data[len(sealedMagic):])
		if err != nil {
			return err
		}
	} else if err := fs.initKey(nil); err != nil {
		return err
	}

	if err := json.Unmarshal(data, &fs.values); err != nil {
		return errors.Wrapf(errors.ErrCorruptState, "[filestore] decode %s", fs.path)
	}
	if fs.values == nil {
		fs.values = make(map[string]string)
	}
	return nil
}

func (fs *FileStore) initKey(salt []byte) error {
	if fs.passphrase == "" {
		return nil
	}
	if salt == nil {
		salt = make([]byte, saltLen)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return pkgerrors.Wrap(err, "[filestore] salt")
		}
	}
	derived, err := scrypt.Key([]byte(fs.passphrase), salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return pkgerrors.Wrap(err, "[filestore] derive key")
	}
	fs.salt = salt
	fs.key = new([keyLen]byte)
	copy(fs.key[:], derived)
	return nil
}

func (fs *FileStore) open(sealed []byte) ([]byte, error) {
	if len(sealed) < saltLen+nonceLen+secretbox.Overhead {
		return nil, errors.Wrapf(errors.ErrCorruptState, "[filestore] %s is truncated", fs.path)
	}
	if err := fs.initKey(sealed[:saltLen]); err != nil {
		return nil, err
	}
	var nonce [nonceLen]byte
	copy(nonce[:], sealed[saltLen:saltLen+nonceLen])
	plain, ok := secretbox.Open(nil, sealed[saltLen+nonceLen:], &nonce, fs.key)
	if !ok {
		return nil, errors.Wrapf(errors.ErrCorruptState, "[filestore] cannot unseal %s", fs.path)
	}
	return plain, nil
}

func (fs *FileStore) seal(plain []byte) ([]byte, error) {
	var nonce [nonceLen]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, pkgerrors.Wrap(err, "[filestore] nonce")
	}
	out := make([]byte, 0, len(sealedMagic)+saltLen+nonceLen+len(plain)+secretbox.Overhead)
	out = append(out, sealedMagic...)
	out = append(out, fs.salt...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plain, &nonce, fs.key), nil
}

func (fs *FileStore) flush() error {
	data, err := json.MarshalIndent(fs.values, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(err, "[filestore] encode")
	}
	if fs.key != nil {
		if data, err = fs.seal(data); err != nil {
			return err
		}
	}

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return pkgerrors.Wrap(err, "[filestore] mkdir")
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return pkgerrors.Wrap(err, "[filestore] create temp")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return pkgerrors.Wrap(err, "[filestore] write")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return pkgerrors.Wrap(err, "[filestore] chmod")
	}
	if err := tmp.Close(); err != nil {
		return pkgerrors.Wrap(err, "[filestore] close")
	}
	return pkgerrors.Wrap(os.Rename(tmp.Name(), fs.path), "[filestore] rename")
}
