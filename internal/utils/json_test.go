// SPDX-License-Identifier: AGPL-3.0-only
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJsonUnmarshal(t *testing.T) {
	var p struct {
		ID int64 `json:"id"`
	}
	assert.NoError(t, JsonUnmarshal([]byte(`{"id": 42}`), &p))
	assert.Equal(t, int64(42), p.ID)

	p.ID = 0
	assert.NoError(t, JsonUnmarshal(nil, &p))
	assert.Equal(t, int64(0), p.ID)

	assert.Error(t, JsonUnmarshal([]byte(`{"unknown": true}`), &p))
	assert.Error(t, JsonUnmarshal([]byte(`{"id": "x"}`), &p))
}
