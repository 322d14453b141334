package chat

import (
	"context"
	"encoding/json"

	"github.com/entrhq/pagechat/pkg/types"
)

// HistoryKey is the storage key of the persisted conversation.
const HistoryKey = "chat_history"

// DefaultHistoryWindow is how many prior messages are sent with a request.
const DefaultHistoryWindow = 10

// Window returns a copy of the last n messages of history. It is the only
// place the request window is computed.
func Window(history []types.Message, n int) []types.Message {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}
	return types.CloneMessages(history)
}

// loadHistory restores the persisted conversation. An undecodable value
// is removed so the next session starts clean.
func (s *Session) loadHistory(ctx context.Context) ([]types.Message, error) {
	raw, ok, err := s.store.Get(ctx, HistoryKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var history []types.Message
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		s.logger.Warnf("dropping undecodable %s: %v", HistoryKey, err)
		if err := s.store.Remove(ctx, HistoryKey); err != nil {
			s.logger.Errorf("failed to remove %s: %v", HistoryKey, err)
		}
		return nil, nil
	}

	valid := history[:0]
	for _, msg := range history {
		if msg.Role.Valid() {
			valid = append(valid, msg)
		}
	}
	return valid, nil
}

// persist writes the current history, or removes the key when it is
// empty. Writes are serialized and always store the latest state.
func (s *Session) persist(ctx context.Context) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	history := types.CloneMessages(s.history)
	s.mu.Unlock()

	if len(history) == 0 {
		if err := s.store.Remove(ctx, HistoryKey); err != nil {
			s.logger.Errorf("failed to remove %s: %v", HistoryKey, err)
		}
		return
	}

	data, err := json.Marshal(history)
	if err != nil {
		s.logger.Errorf("failed to encode history: %v", err)
		return
	}
	if err := s.store.Set(ctx, HistoryKey, string(data)); err != nil {
		s.logger.Errorf("failed to persist history: %v", err)
	}
}
