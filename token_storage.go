package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type InMemorySessionStore struct {
	NonceMap map[string]string
	mutex    sync.Mutex
}

func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		NonceMap: make(map[string]string),
	}
}

type RedisSessionStore struct {
	client    *redis.Client
	namespace string
}

func NewRedisSessionStore(client *redis.Client, namespace string) *RedisSessionStore {
	return &RedisSessionStore{client: client, namespace: namespace}
}

// Should be safe to use in concurrency
type SessionStore interface {
	// Store the nonce for the given sessionId.
	// Returns an error when it somehow fails to store the value.
	// Should not return an error when the value already exists,
	// it should just update in that case.
	StoreNonce(sessionId string, nonce string) error

	// Should retrieve the nonce for the given sessionId
	// and return an error in any case where it fails to do so.
	RetrieveNonce(sessionId string) (string, error)

	// Should remove the nonce and return an error if it fails to do so.
	// The value not being there should also be considered an error.
	RemoveNonce(sessionId string) error
}

// ------------------------------------------------------------------------------

func createKey(namespace, sessionId string) string {
	return fmt.Sprintf("%s:session:%s", namespace, sessionId)
}

const SessionTimeout time.Duration = 24 * time.Hour

func (s *RedisSessionStore) StoreNonce(sessionId string, nonce string) error {
	ctx := context.Background()
	return s.client.Set(ctx, createKey(s.namespace, sessionId), nonce, SessionTimeout).Err()
}

func (s *RedisSessionStore) RetrieveNonce(sessionId string) (string, error) {
	ctx := context.Background()
	return s.client.Get(ctx, createKey(s.namespace, sessionId)).Result()
}

func (s *RedisSessionStore) RemoveNonce(sessionId string) error {
	ctx := context.Background()
	return s.client.Del(ctx, createKey(s.namespace, sessionId)).Err()
}

// ------------------------------------------------------------------------------

func (s *InMemorySessionStore) StoreNonce(sessionId, nonce string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.NonceMap[sessionId] = nonce
	return nil
}

func (s *InMemorySessionStore) RetrieveNonce(sessionId string) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if nonce, ok := s.NonceMap[sessionId]; ok {
		return nonce, nil
	} else {
		return "", fmt.Errorf("failed to find nonce for %s", sessionId)
	}
}

func (s *InMemorySessionStore) RemoveNonce(sessionId string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.NonceMap[sessionId]; ok {
		delete(s.NonceMap, sessionId)
		return nil
	} else {
		return fmt.Errorf("failed to remove nonce for %s, because it wasn't there", sessionId)
	}
}
