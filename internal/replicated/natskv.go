package replicated

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

const (
	natsMaxReconnects = 10
	natsReconnectWait = 2 * time.Second
	bucketPrefix      = "SKETCH_"
)

// NatsKV is a Store backed by a NATS JetStream KeyValue bucket. One bucket
// per session code; last-writer-wins per key is the bucket's native
// semantics, which is exactly the convergence model the session relies on.
type NatsKV struct {
	nc *nats.Conn
	kv jetstream.KeyValue
}

// OpenNatsKV connects to NATS and creates or joins the session's bucket.
func OpenNatsKV(ctx context.Context, natsURL, sessionCode string) (*NatsKV, error) {
	opts := []nats.Option{
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:       bucketPrefix + sessionCode,
		Description:  "sketchwager replicated session state",
		MaxValueSize: maxPayloadBytes,
		History:      1,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create session bucket: %w", err)
	}

	log.Info().Str("bucket", bucketPrefix+sessionCode).Msg("joined replicated session bucket")
	return &NatsKV{nc: nc, kv: kv}, nil
}

func (s *NatsKV) Get(ctx context.Context, slot string, out any) error {
	entry, err := s.kv.Get(ctx, slot)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return ErrNoValue
		}
		return fmt.Errorf("failed to get slot %s: %w", slot, err)
	}

	data := entry.Value()
	if n, ok := isChunkManifest(data); ok {
		data, err = s.assemble(ctx, slot, n)
		if err != nil {
			return err
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal slot %s: %w", slot, err)
	}
	return nil
}

func (s *NatsKV) assemble(ctx context.Context, slot string, n int) ([]byte, error) {
	var data []byte
	for i := 0; i < n; i++ {
		entry, err := s.kv.Get(ctx, chunkKey(slot, i))
		if err != nil {
			return nil, fmt.Errorf("failed to get chunk %d of slot %s: %w", i, slot, err)
		}
		data = append(data, entry.Value()...)
	}
	return data, nil
}

func (s *NatsKV) Set(ctx context.Context, slot string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal slot %s: %w", slot, err)
	}

	head, parts, err := splitChunks(data, defaultChunkBytes)
	if err != nil {
		return err
	}

	// Chunk parts go in before the manifest so a reader that observes the
	// manifest always finds complete parts.
	for i, part := range parts {
		if _, err := s.kv.Put(ctx, chunkKey(slot, i), part); err != nil {
			return fmt.Errorf("failed to put chunk %d of slot %s: %w", i, slot, err)
		}
	}
	if _, err := s.kv.Put(ctx, slot, head); err != nil {
		return fmt.Errorf("failed to put slot %s: %w", slot, err)
	}

	if len(parts) > 0 {
		log.Debug().Str("slot", slot).Int("chunks", len(parts)).Int("bytes", len(data)).Msg("chunked oversized slot write")
	}
	return nil
}

func (s *NatsKV) Watch(ctx context.Context) (<-chan Update, error) {
	watcher, err := s.kv.WatchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to watch session bucket: %w", err)
	}

	ch := make(chan Update, 64)
	go func() {
		defer close(ch)
		defer watcher.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-watcher.Updates():
				if !ok {
					return
				}
				// A nil entry marks the end of the initial replay.
				if entry == nil {
					continue
				}
				if entry.Operation() != jetstream.KeyValuePut {
					continue
				}
				if isChunkKey(entry.Key()) {
					continue
				}
				select {
				case ch <- Update{Slot: entry.Key()}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

func (s *NatsKV) Close() error {
	s.nc.Close()
	return nil
}
