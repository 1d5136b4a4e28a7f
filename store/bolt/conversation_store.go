package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boltdb/bolt"

	"github.com/classpilot/classpilot"
)

// Conversation is the persisted record of one chat session.
type Conversation struct {
	ID        string                      `json:"id"`
	Role      string                      `json:"role"`
	UserID    int64                       `json:"user_id,omitempty"`
	Username  string                      `json:"username,omitempty"`
	Turns     []classpilot.Turn           `json:"turns"`
	State     *classpilot.ExecutionState  `json:"state,omitempty"`
	Pending   *classpilot.PendingToolCall `json:"pending,omitempty"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

// ConversationStore persists conversations keyed by id.
type ConversationStore struct {
	boltDB *bolt.DB
}

func NewConversationStore(db *DB) *ConversationStore {
	return &ConversationStore{boltDB: db.Bolt()}
}

// Save creates or replaces the conversation.
func (s *ConversationStore) Save(_ context.Context, conv *Conversation) error {
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now()
	}
	conv.UpdatedAt = time.Now()
	return s.boltDB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketConversationStore)
		data, err := json.Marshal(conv)
		if err != nil {
			return fmt.Errorf("failed to marshal conversation: %w", err)
		}
		return b.Put([]byte(conv.ID), data)
	})
}

func (s *ConversationStore) Get(_ context.Context, id string) (*Conversation, error) {
	var conv Conversation
	err := s.boltDB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketConversationStore)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("conversation %q not found", id)
		}
		return json.Unmarshal(data, &conv)
	})
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *ConversationStore) Delete(_ context.Context, id string) error {
	return s.boltDB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketConversationStore)
		return b.Delete([]byte(id))
	})
}

// List returns all conversations, newest update first not guaranteed;
// callers sort as needed.
func (s *ConversationStore) List(_ context.Context) ([]*Conversation, error) {
	var convs []*Conversation
	err := s.boltDB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketConversationStore)
		return b.ForEach(func(k, v []byte) error {
			var conv Conversation
			if err := json.Unmarshal(v, &conv); err != nil {
				return fmt.Errorf("failed to unmarshal conversation: %w", err)
			}
			convs = append(convs, &conv)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, nil
}
