// Structured logging wiring. The store never logs at Info level for
// routine operations (insert/update/delete/read are far too hot for
// that); it logs at Debug on open and at Warn whenever an operation
// fails and the store transitions to UNKNOWN, since that
// transition is the one event an operator actually needs to notice.
package recstore

import "go.uber.org/zap"

// NewDevelopmentLogger returns a human-readable logger suitable for
// interactive tools (cmd/reckv) and tests. Production callers should
// pass their own *zap.Logger via Options.Logger.
func NewDevelopmentLogger() *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
