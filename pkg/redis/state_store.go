package redis

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStateNotFound is returned when no document is stored under a key.
var ErrStateNotFound = errors.New("client state not found")

const stateKeyPrefix = "client_state:"

// StateStore keeps client state documents in Redis, optionally encrypted
// with AES-GCM.
type StateStore struct {
	encryptionKey []byte
	ttl           time.Duration
}

var (
	setStateValue = Set
	getStateValue = Get
	delStateValue = Del
)

// NewStateStore creates a state store. An empty key stores plaintext; a
// non-empty key must be 32 bytes hex encoded. ttl 0 keeps entries forever.
func NewStateStore(encryptionKeyHex string, ttl time.Duration) (*StateStore, error) {
	store := &StateStore{ttl: ttl}
	if encryptionKeyHex == "" {
		return store, nil
	}
	key, err := hex.DecodeString(encryptionKeyHex)
	if err != nil {
		return nil, errors.New("invalid encryption key hex")
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes (64 hex chars)")
	}
	store.encryptionKey = key
	return store, nil
}

// StateKey builds the Redis key for a namespaced document
func StateKey(namespace, key string) string {
	return stateKeyPrefix + namespace + ":" + key
}

// Put stores value under namespace/key
func (s *StateStore) Put(ctx context.Context, namespace, key string, value []byte) error {
	payload := string(value)
	if s.encryptionKey != nil {
		encrypted, err := s.encrypt(value)
		if err != nil {
			return err
		}
		payload = encrypted
	}
	return setStateValue(ctx, StateKey(namespace, key), payload, s.ttl)
}

// Fetch returns the document under namespace/key
func (s *StateStore) Fetch(ctx context.Context, namespace, key string) ([]byte, error) {
	payload, err := getStateValue(ctx, StateKey(namespace, key))
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, err
	}
	if s.encryptionKey == nil {
		return []byte(payload), nil
	}
	return s.decrypt(payload)
}

// Remove deletes the document under namespace/key
func (s *StateStore) Remove(ctx context.Context, namespace, key string) error {
	return delStateValue(ctx, StateKey(namespace, key))
}

func (s *StateStore) encrypt(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return hex.EncodeToString(ciphertext), nil
}

func (s *StateStore) decrypt(ciphertextHex string) ([]byte, error) {
	ciphertext, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
