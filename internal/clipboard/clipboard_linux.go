//go:build linux

package clipboard

// Headless Linux builds have no X11 clipboard; callers show the text instead.
const clipboardAvailable = false

func initClipboard() error {
	return ErrUnavailable
}

func writeToClipboard(string) error {
	return ErrUnavailable
}
