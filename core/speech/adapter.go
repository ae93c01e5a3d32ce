// Package speech defines the contract between the coordinator and the
// platform speech services. Adapters are thin pass-throughs: every call is a
// non-blocking request, and the platform answers later through the callbacks
// configured at Open time.
package speech

import (
	"context"
	"errors"
)

// ErrPermissionDenied reports that the platform refused microphone access.
// Retrying cannot succeed without external re-authorization, so the
// coordinator treats it as terminal.
var ErrPermissionDenied = errors.New("speech: microphone permission denied")

// ErrUnavailable reports that the platform speech service is not present at
// all. The coordinator degrades to reporting unavailable and takes no
// further action.
var ErrUnavailable = errors.New("speech: platform speech service unavailable")

// Adapter is the shared microphone and speech-synthesis channel. Both are
// singletons on every supported platform; only one listening stream and one
// synthesis stream can exist.
type Adapter interface {
	// Open registers the callbacks used to deliver platform notifications.
	// It must be called before any other method and may be called again to
	// rebind callbacks.
	Open(ctx context.Context, opts ...Option) error

	// StartListening asks the platform to open the recognition stream. A nil
	// return only means the request was accepted; confirmation arrives via
	// the listening-started callback.
	StartListening(ctx context.Context) error

	// StopListening asks the platform to close the recognition stream.
	// Confirmation arrives via the listening-stopped callback.
	StopListening(ctx context.Context) error

	// Speak asks the platform to synthesize text. Completion arrives via the
	// speech-ended callback.
	Speak(ctx context.Context, text string) error
}

// PermissionBinder is implemented by adapters that hold platform permission
// listeners that must be released when the last session ends.
type PermissionBinder interface {
	ClearPermissionBindings()
}
