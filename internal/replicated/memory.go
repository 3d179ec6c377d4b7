package replicated

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Memory is an in-process Store with the same last-writer-wins and
// chunking semantics as the NATS-backed store. Tests run whole-session
// scenarios against it; several evaluators sharing one Memory store model
// several clients sharing one converged view.
type Memory struct {
	mu       sync.Mutex
	values   map[string][]byte
	watchers []chan Update
	chunkLim int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		values:   make(map[string][]byte),
		chunkLim: defaultChunkBytes,
	}
}

// SetChunkLimit lowers the chunking threshold so tests can exercise the
// chunked path without multi-kilobyte fixtures.
func (s *Memory) SetChunkLimit(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunkLim = n
}

func (s *Memory) Get(ctx context.Context, slot string, out any) error {
	s.mu.Lock()
	data, ok := s.values[slot]
	if ok {
		if n, chunked := isChunkManifest(data); chunked {
			assembled := make([]byte, 0, n*s.chunkLim)
			for i := 0; i < n; i++ {
				assembled = append(assembled, s.values[chunkKey(slot, i)]...)
			}
			data = assembled
		}
	}
	s.mu.Unlock()

	if !ok {
		return ErrNoValue
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal slot %s: %w", slot, err)
	}
	return nil
}

func (s *Memory) Set(ctx context.Context, slot string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal slot %s: %w", slot, err)
	}

	s.mu.Lock()
	head, parts, err := splitChunks(data, s.chunkLim)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	for i, part := range parts {
		s.values[chunkKey(slot, i)] = part
	}
	s.values[slot] = head

	// Notified under the mutex so a watcher being torn down cannot have
	// its channel closed mid-send. Sends never block.
	for _, w := range s.watchers {
		select {
		case w <- Update{Slot: slot}:
		default:
			// Slow watcher; it will re-read on its next notification.
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *Memory) Watch(ctx context.Context) (<-chan Update, error) {
	ch := make(chan Update, 64)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

func (s *Memory) Close() error {
	return nil
}
