package replicated

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// The store caps each underlying write near 10 KB. We chunk at 9 KB to
// leave headroom for the transport envelope.
const (
	maxPayloadBytes     = 10 * 1024
	defaultChunkBytes   = 9 * 1024
	chunkManifestPrefix = `{"__chunks":`
)

type chunkManifest struct {
	Chunks int `json:"__chunks"`
}

// splitChunks returns the payload as-is when it fits under limit, or a
// manifest plus the ordered chunk payloads when it does not. Game payloads
// are always JSON objects or arrays of our own types, which never contain
// a top-level "__chunks" key, so the manifest is unambiguous.
func splitChunks(data []byte, limit int) (head []byte, parts [][]byte, err error) {
	if len(data) <= limit {
		return data, nil, nil
	}
	for off := 0; off < len(data); off += limit {
		end := off + limit
		if end > len(data) {
			end = len(data)
		}
		parts = append(parts, data[off:end])
	}
	head, err = json.Marshal(chunkManifest{Chunks: len(parts)})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal chunk manifest: %w", err)
	}
	return head, parts, nil
}

// isChunkManifest reports whether a stored head value is a chunk manifest
// and, if so, how many parts to reassemble.
func isChunkManifest(data []byte) (int, bool) {
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte(chunkManifestPrefix)) {
		return 0, false
	}
	var m chunkManifest
	if err := json.Unmarshal(data, &m); err != nil || m.Chunks <= 0 {
		return 0, false
	}
	return m.Chunks, true
}

// chunkKey names the underlying key holding part i of a chunked slot.
func chunkKey(slot string, i int) string {
	return fmt.Sprintf("%s.chunk.%d", slot, i)
}

// isChunkKey filters chunk part keys out of watch notifications so a
// chunked write surfaces as one update on the manifest key.
func isChunkKey(key string) bool {
	return bytes.Contains([]byte(key), []byte(".chunk."))
}
