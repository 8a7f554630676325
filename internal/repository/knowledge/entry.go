package knowledge

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/inquirydesk/internal/domain/retrieval"
)

// Entry is a reference document with its embedding, ready to be written to an index.
type Entry struct {
	ID       string
	Text     string
	Metadata map[string]any
	Vector   []float32
}

// EntryID derives a stable identifier from document text so reseeding overwrites instead of duplicating.
func EntryID(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:8])
}

func encodeMetadata(md map[string]any) ([]byte, error) {
	if md == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(md)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return data, nil
}

// decodeMetadata tolerates missing or corrupt metadata: the text alone is enough for retrieval.
func decodeMetadata(data []byte) map[string]any {
	if len(data) == 0 {
		return nil
	}
	var md map[string]any
	if err := json.Unmarshal(data, &md); err != nil {
		return nil
	}
	return md
}

func toMatch(text string, metadata []byte, score float64) retrieval.Match {
	return retrieval.Match{
		Document: retrieval.Document{Text: text, Metadata: decodeMetadata(metadata)},
		Score:    score,
	}
}
