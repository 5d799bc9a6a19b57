package qr

import (
	"context"
	"errors"
	"image"
)

// Facing selects which camera to open
type Facing string

const (
	FacingEnvironment Facing = "environment"
	FacingUser        Facing = "user"
)

var (
	// ErrPermissionDenied is returned when camera access is refused.
	ErrPermissionDenied = errors.New("camera permission denied")
	// ErrStreamStopped is returned when reading from a released stream.
	ErrStreamStopped = errors.New("camera stream stopped")
	// ErrStreamEnded is returned when a finite source runs out of frames.
	ErrStreamEnded = errors.New("camera stream ended")
)

// Track is one media track of a stream; Stop releases it.
type Track interface {
	Kind() string
	Stop()
}

// MediaStream is a live camera stream
type MediaStream interface {
	Tracks() []Track
	// Frame returns the current frame. A nil image with nil error means no
	// frame is ready yet.
	Frame(ctx context.Context) (image.Image, error)
}

// Camera opens media streams
type Camera interface {
	Open(ctx context.Context, facing Facing) (MediaStream, error)
}
