package validation

import (
	"log/slog"
)

// AuditValidationError records a rejected input. Only the field context and message are
// logged, never the raw document.
func AuditValidationError(context, errMsg string) {
	slog.Default().Warn("Validation failed", "component", "validation", "context", context, "error", errMsg)
}
