// SPDX-License-Identifier: AGPL-3.0-only
package tasks

import "github.com/jolks/mcp-tasklist/internal/model"

// Filter returns the tasks matching mode in their original order. The input is not modified.
func Filter(collection []model.Task, mode model.FilterMode) []model.Task {
	out := make([]model.Task, 0, len(collection))
	for _, t := range collection {
		if mode.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}
