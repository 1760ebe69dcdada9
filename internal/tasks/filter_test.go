// SPDX-License-Identifier: AGPL-3.0-only
package tasks

import (
	"testing"

	"github.com/jolks/mcp-tasklist/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestFilter(t *testing.T) {
	in := []model.Task{
		{ID: 1, Title: "a", Completed: true},
		{ID: 2, Title: "b"},
		{ID: 3, Title: "c", Completed: true},
	}
	orig := append([]model.Task(nil), in...)

	assert.Equal(t, in, Filter(in, model.FilterAll))
	assert.Equal(t, []model.Task{in[0], in[2]}, Filter(in, model.FilterCompleted))
	assert.Equal(t, []model.Task{in[1]}, Filter(in, model.FilterPending))
	assert.Equal(t, orig, in)

	assert.Empty(t, Filter(nil, model.FilterAll))
}
