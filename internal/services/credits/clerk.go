package credits

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Egham-7/headshot-studio/internal/models"

	"github.com/clerk/clerk-sdk-go/v2/user"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// GenerationsLeftKey is the public metadata field holding the balance
const GenerationsLeftKey = "generationsLeft"

// MetadataClient reads and replaces a user's public metadata object
type MetadataClient interface {
	PublicMetadata(ctx context.Context, userID string) (map[string]any, error)
	UpdatePublicMetadata(ctx context.Context, userID string, metadata map[string]any) error
}

// ClerkStore keeps the balance in the identity provider's user metadata.
// The provider offers no atomic increment, so mutations are read-modify-write.
// They are serialised per user within this process only.
type ClerkStore struct {
	client MetadataClient
	locks  *keyedMutex
}

func NewClerkStore(client MetadataClient) *ClerkStore {
	return &ClerkStore{
		client: client,
		locks:  newKeyedMutex(),
	}
}

func (s *ClerkStore) Ensure(ctx context.Context, userID string, initial int) (int, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	metadata, balance, ok, err := s.read(ctx, userID)
	if err != nil {
		return 0, err
	}
	if ok {
		return balance, nil
	}

	if err := s.write(ctx, userID, metadata, initial); err != nil {
		return 0, err
	}
	fiberlog.Infof("[%s] Initialised generations balance to %d", userID, initial)
	return initial, nil
}

func (s *ClerkStore) Debit(ctx context.Context, userID string, amount int, entry models.CreditEntry) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	metadata, balance, _, err := s.read(ctx, userID)
	if err != nil {
		return 0, err
	}
	if balance < amount {
		return 0, ErrInsufficientCredits
	}

	newBalance := balance - amount
	if err := s.write(ctx, userID, metadata, newBalance); err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (s *ClerkStore) Credit(ctx context.Context, userID string, amount int, entry models.CreditEntry) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	metadata, balance, _, err := s.read(ctx, userID)
	if err != nil {
		return 0, err
	}

	newBalance := balance + amount
	if err := s.write(ctx, userID, metadata, newBalance); err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (s *ClerkStore) read(ctx context.Context, userID string) (map[string]any, int, bool, error) {
	metadata, err := s.client.PublicMetadata(ctx, userID)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to read user metadata: %w", err)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	balance, ok := metadata[GenerationsLeftKey].(float64)
	if !ok {
		return metadata, 0, false, nil
	}
	if balance < 0 {
		balance = 0
	}
	return metadata, int(balance), true, nil
}

func (s *ClerkStore) write(ctx context.Context, userID string, metadata map[string]any, balance int) error {
	updated := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		updated[k] = v
	}
	updated[GenerationsLeftKey] = balance

	if err := s.client.UpdatePublicMetadata(ctx, userID, updated); err != nil {
		return fmt.Errorf("failed to update user metadata: %w", err)
	}
	return nil
}

// ClerkMetadataClient talks to the Clerk backend API. clerk.SetKey must have
// been called with the secret key.
type ClerkMetadataClient struct{}

func (ClerkMetadataClient) PublicMetadata(ctx context.Context, userID string) (map[string]any, error) {
	u, err := user.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	metadata := map[string]any{}
	if len(u.PublicMetadata) > 0 {
		if err := json.Unmarshal(u.PublicMetadata, &metadata); err != nil {
			return nil, fmt.Errorf("failed to decode public metadata: %w", err)
		}
	}
	return metadata, nil
}

func (ClerkMetadataClient) UpdatePublicMetadata(ctx context.Context, userID string, metadata map[string]any) error {
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	raw := json.RawMessage(encoded)

	_, err = user.UpdateMetadata(ctx, userID, &user.UpdateMetadataParams{
		PublicMetadata: &raw,
	})
	return err
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until key is free and returns its unlock function
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()

	return func() {
		m.Unlock()

		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
