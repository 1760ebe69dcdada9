// SPDX-License-Identifier: AGPL-3.0-only
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jolks/mcp-tasklist/internal/errors"
	"github.com/jolks/mcp-tasklist/internal/model"
)

// EncodeSnapshot serializes the collection as an indented JSON array.
func EncodeSnapshot(tasks []*model.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []*model.Task{}
	}
	b, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, errors.Storage("encode snapshot", err)
	}
	return b, nil
}

// DecodeSnapshot parses a snapshot and checks every record. Any problem is
// reported as an errors.Parse error.
func DecodeSnapshot(data []byte) ([]*model.Task, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var tasks []*model.Task
	if err := dec.Decode(&tasks); err != nil {
		return nil, errors.Parse(err)
	}
	if dec.More() {
		return nil, errors.Parse(fmt.Errorf("trailing data after snapshot"))
	}
	if tasks == nil {
		return nil, errors.Parse(fmt.Errorf("snapshot is not an array"))
	}

	seen := make(map[int64]struct{}, len(tasks))
	for i, t := range tasks {
		if t == nil {
			return nil, errors.Parse(fmt.Errorf("record %d is null", i))
		}
		if t.ID <= 0 {
			return nil, errors.Parse(fmt.Errorf("record %d has non-positive id %d", i, t.ID))
		}
		if strings.TrimSpace(t.Title) == "" {
			return nil, errors.Parse(fmt.Errorf("record %d has an empty title", i))
		}
		if !t.Priority.Valid() {
			return nil, errors.Parse(fmt.Errorf("record %d has unknown priority %q", i, t.Priority))
		}
		if _, dup := seen[t.ID]; dup {
			return nil, errors.Parse(fmt.Errorf("duplicate task id %d", t.ID))
		}
		seen[t.ID] = struct{}{}
	}
	return tasks, nil
}
