package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boltdb/bolt"

	"github.com/classpilot/classpilot"
)

// UsageRecord is the token accounting of one agent run.
type UsageRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	SessionID    string    `json:"session_id"`
	Model        string    `json:"model,omitempty"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	TotalTokens  int64     `json:"total_tokens"`
	ToolsUsed    []string  `json:"tools_used,omitempty"`
}

// UsageStats aggregates usage per model.
type UsageStats struct {
	Runs         int64            `json:"runs"`
	InputTokens  int64            `json:"input_tokens"`
	OutputTokens int64            `json:"output_tokens"`
	TotalTokens  int64            `json:"total_tokens"`
	ByModel      map[string]int64 `json:"by_model"`
}

// UsageStore appends usage records; keys are timestamp-ordered.
type UsageStore struct {
	boltDB *bolt.DB
}

func NewUsageStore(db *DB) *UsageStore {
	return &UsageStore{boltDB: db.Bolt()}
}

// Record appends one run's usage.
func (s *UsageStore) Record(_ context.Context, sessionID string, usage classpilot.Usage, toolsUsed []string) error {
	rec := UsageRecord{
		Timestamp:    time.Now(),
		SessionID:    sessionID,
		Model:        usage.Model,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		TotalTokens:  usage.TotalTokens,
		ToolsUsed:    toolsUsed,
	}
	return s.boltDB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketUsageStore)
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate usage key: %w", err)
		}
		key := fmt.Sprintf("%s/%016d", rec.Timestamp.UTC().Format(time.RFC3339Nano), seq)
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal usage record: %w", err)
		}
		return b.Put([]byte(key), data)
	})
}

// Stats sums all recorded usage.
func (s *UsageStore) Stats(_ context.Context) (*UsageStats, error) {
	stats := &UsageStats{ByModel: map[string]int64{}}
	err := s.boltDB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketUsageStore)
		return b.ForEach(func(k, v []byte) error {
			var rec UsageRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal usage record: %w", err)
			}
			stats.Runs++
			stats.InputTokens += rec.InputTokens
			stats.OutputTokens += rec.OutputTokens
			stats.TotalTokens += rec.TotalTokens
			if rec.Model != "" {
				stats.ByModel[rec.Model] += rec.TotalTokens
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
