// Package clipboard writes text to the system clipboard where the platform supports it.
package clipboard

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnavailable is returned when this build has no system clipboard.
var ErrUnavailable = errors.New("clipboard not available on this platform")

var (
	initOnce sync.Once
	initErr  error
)

// Available reports whether this build can reach a system clipboard.
func Available() bool {
	return clipboardAvailable
}

// Copy writes text to the system clipboard.
func Copy(text string) error {
	if !clipboardAvailable {
		return ErrUnavailable
	}

	initOnce.Do(func() {
		initErr = initClipboard()
	})
	if initErr != nil {
		return fmt.Errorf("clipboard initialization failed: %w", initErr)
	}

	if err := writeToClipboard(text); err != nil {
		return fmt.Errorf("failed to write to clipboard: %w", err)
	}
	return nil
}
