package registry

import (
	"encoding/json"
	"fmt"

	"github.com/DYAI2025/stoppclock/internal/timer"
)

// Key is the storage key holding the serialized registry.
const Key = "stoppclock-active-timers"

// Rejected describes a snapshot entry that was dropped while decoding.
type Rejected struct {
	Index int
	ID    string
	Err   error
}

// EncodeSnapshot serializes entities as a JSON array.
func EncodeSnapshot(entities []timer.Entity) ([]byte, error) {
	if entities == nil {
		entities = []timer.Entity{}
	}
	data, err := json.Marshal(entities)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a JSON array of entities. A document that is not an
// array fails as a whole; individual entries that do not parse or fail
// validation are dropped and reported.
func DecodeSnapshot(data []byte) ([]timer.Entity, []Rejected, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode snapshot: %w", err)
	}

	entities := make([]timer.Entity, 0, len(raw))
	var rejected []Rejected
	for i, item := range raw {
		var e timer.Entity
		if err := json.Unmarshal(item, &e); err != nil {
			rejected = append(rejected, Rejected{Index: i, Err: err})
			continue
		}
		if err := e.Validate(); err != nil {
			rejected = append(rejected, Rejected{Index: i, ID: e.ID, Err: err})
			continue
		}
		entities = append(entities, e)
	}
	return entities, rejected, nil
}
