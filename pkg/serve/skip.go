package serve

import (
	"errors"
	"fmt"
)

// SkipEventError marks an event the handler deliberately ignored. Skipped
// events are recorded as "skipped" in the actions log rather than "failed".
type SkipEventError struct {
	Reason string
}

func (e *SkipEventError) Error() string {
	return e.Reason
}

// SkipEventf builds a SkipEventError with a formatted reason
func SkipEventf(format string, args ...interface{}) error {
	return &SkipEventError{Reason: fmt.Sprintf(format, args...)}
}

// IsSkipEventError reports whether err marks a deliberately skipped event
func IsSkipEventError(err error) bool {
	var skip *SkipEventError
	return errors.As(err, &skip)
}
