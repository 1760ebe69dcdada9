// SPDX-License-Identifier: AGPL-3.0-only
package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("")
	assert.NoError(t, err)
	assert.Equal(t, PriorityMedium, p)

	p, err = ParsePriority(" HIGH ")
	assert.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	_, err = ParsePriority("urgent")
	assert.Error(t, err)
}

func TestParseFilterMode(t *testing.T) {
	m, err := ParseFilterMode("")
	assert.NoError(t, err)
	assert.Equal(t, FilterAll, m)

	m, err = ParseFilterMode("Pending")
	assert.NoError(t, err)
	assert.Equal(t, FilterPending, m)

	_, err = ParseFilterMode("archived")
	assert.Error(t, err)
}

func TestFilterModeMatches(t *testing.T) {
	done := Task{Completed: true}
	open := Task{}

	assert.True(t, FilterAll.Matches(done))
	assert.True(t, FilterAll.Matches(open))
	assert.True(t, FilterCompleted.Matches(done))
	assert.False(t, FilterCompleted.Matches(open))
	assert.True(t, FilterPending.Matches(open))
	assert.False(t, FilterPending.Matches(done))
}

func TestDefaultTasks(t *testing.T) {
	tasks := DefaultTasks()
	if assert.Len(t, tasks, 3) {
		assert.Equal(t, []int64{1, 2, 3}, []int64{tasks[0].ID, tasks[1].ID, tasks[2].ID})
		assert.False(t, tasks[0].Completed)
		assert.False(t, tasks[1].Completed)
		assert.True(t, tasks[2].Completed)
		assert.Equal(t, PriorityHigh, tasks[0].Priority)
		assert.Equal(t, PriorityLow, tasks[2].Priority)
	}

	// every call returns a fresh slice
	tasks[0].Title = "changed"
	assert.Equal(t, "Learn React", DefaultTasks()[0].Title)
}
