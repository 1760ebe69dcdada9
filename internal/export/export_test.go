// SPDX-License-Identifier: AGPL-3.0-only
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/jolks/mcp-tasklist/internal/errors"
	"github.com/jolks/mcp-tasklist/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []model.Task {
	return []model.Task{
		{ID: 1, Title: "Learn React", Description: "Complete React tutorial", Priority: model.PriorityHigh},
		{ID: 3, Title: "Deploy, then celebrate", Completed: true, Priority: model.PriorityLow},
	}
}

func TestExportJSON(t *testing.T) {
	b, err := Export(sample(), "json")
	require.NoError(t, err)

	var got []model.Task
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, sample(), got)

	b, err = Export(nil, "")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))
}

func TestExportCSV(t *testing.T) {
	b, err := Export(sample(), "CSV")
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"id", "title", "description", "completed", "priority"}, records[0])
	assert.Equal(t, []string{"1", "Learn React", "Complete React tutorial", "false", "high"}, records[1])
	assert.Equal(t, []string{"3", "Deploy, then celebrate", "", "true", "low"}, records[2])
}

func TestExportPDF(t *testing.T) {
	b, err := Export(sample(), "pdf")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF-")))
	assert.True(t, Binary("pdf"))
	assert.False(t, Binary("csv"))
}

func TestExportUnknownFormat(t *testing.T) {
	_, err := Export(sample(), "xlsx")
	assert.True(t, errors.IsInvalidInput(err))
}
