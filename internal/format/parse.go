package format

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/DYAI2025/stoppclock/internal/timer"
)

// ErrNotSnapshot is returned for input that is not an exported snapshot.
var ErrNotSnapshot = errors.New("not a stoppclock snapshot")

// Parser reads a snapshot back.
type Parser interface {
	Parse(data []byte) (*Snapshot, error)
}

// Parse detects the format of data and parses it.
func Parse(data []byte) (*Snapshot, error) {
	if bytes.Contains(data, []byte(markdownSentinel)) {
		return (&MarkdownParser{}).Parse(data)
	}
	return (&JSONParser{}).Parse(data)
}

// JSONParser reads an exported JSON snapshot, or a bare JSON array of
// entities as kept by the storage backend.
type JSONParser struct{}

func (p *JSONParser) Parse(data []byte) (*Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var timers []timer.Entity
		if err := json.Unmarshal(trimmed, &timers); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotSnapshot, err)
		}
		return &Snapshot{Timers: timers}, nil
	}

	var s Snapshot
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSnapshot, err)
	}
	return &s, nil
}

// MarkdownParser extracts the payload embedded by MarkdownRenderer.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(data []byte) (*Snapshot, error) {
	content := string(data)
	if !strings.Contains(content, markdownSentinel) {
		return nil, fmt.Errorf("%w: missing version sentinel", ErrNotSnapshot)
	}

	start := strings.Index(content, markdownPrefix)
	if start == -1 {
		return nil, fmt.Errorf("%w: missing data payload", ErrNotSnapshot)
	}
	start += len(markdownPrefix)
	end := strings.Index(content[start:], markdownSuffix)
	if end == -1 {
		return nil, fmt.Errorf("%w: malformed data payload", ErrNotSnapshot)
	}

	payload, err := base64.StdEncoding.DecodeString(content[start : start+end])
	if err != nil {
		return nil, fmt.Errorf("%w: corrupted payload: %v", ErrNotSnapshot, err)
	}
	var s Snapshot
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("%w: embedded JSON: %v", ErrNotSnapshot, err)
	}
	return &s, nil
}
