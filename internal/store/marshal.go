package store

import (
	"encoding/json"
	"fmt"

	"github.com/hindsightlab/hindsight/internal/event"
)

// marshalDict encodes a value dict as canonical JSON TEXT. A nil dict
// becomes the empty string so that absent snapshots survive the round
// trip as absent, not as empty.
func marshalDict(d event.Dict) (string, error) {
	if d == nil {
		return "", nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal dict: %w", err)
	}
	return string(data), nil
}

// unmarshalDict is the inverse of marshalDict.
func unmarshalDict(text string) (event.Dict, error) {
	if text == "" {
		return nil, nil
	}
	var d event.Dict
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return nil, fmt.Errorf("unmarshal dict: %w", err)
	}
	return d, nil
}

// marshalFiles encodes the session's source file list as a JSON array.
func marshalFiles(files []string) (string, error) {
	if files == nil {
		files = []string{}
	}
	data, err := json.Marshal(files)
	if err != nil {
		return "", fmt.Errorf("marshal files: %w", err)
	}
	return string(data), nil
}

// unmarshalFiles is the inverse of marshalFiles.
func unmarshalFiles(text string) ([]string, error) {
	if text == "" {
		return []string{}, nil
	}
	var files []string
	if err := json.Unmarshal([]byte(text), &files); err != nil {
		return nil, fmt.Errorf("unmarshal files: %w", err)
	}
	if files == nil {
		files = []string{}
	}
	return files, nil
}
