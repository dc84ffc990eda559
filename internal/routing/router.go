// Package routing resolves which provider an analysis request targets.
package routing

import (
	"strings"

	"vidscope-backend/internal/catalog"
)

// Resolve returns the provider an analysis should be dispatched to. An
// override of "auto" (or blank) defers to the task's primary provider; any
// other value is returned verbatim. Resolve does not check the override
// against the task's capabilities; existence of the provider is the HTTP
// boundary's concern.
func Resolve(task catalog.Task, override string) catalog.ProviderID {
	trimmed := strings.TrimSpace(override)
	if trimmed == "" || trimmed == catalog.Auto {
		return task.Primary
	}
	return catalog.ProviderID(trimmed)
}
