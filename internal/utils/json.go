// SPDX-License-Identifier: AGPL-3.0-only
package utils

import (
	"bytes"
	"encoding/json"
)

// JsonUnmarshal decodes data into v, treating empty input as an empty object
// and rejecting unknown fields
func JsonUnmarshal(data []byte, v interface{}) error {
	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
