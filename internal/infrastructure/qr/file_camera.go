package qr

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var readFrameFile = os.ReadFile

// FileCamera replays image files as camera frames, one file per Frame call.
// It lets the scan loop run without capture hardware.
type FileCamera struct {
	Paths []string
	// Loop restarts from the first frame instead of ending the stream.
	Loop bool
}

// NewFileCamera builds a camera from files or directories of images.
func NewFileCamera(paths ...string) (*FileCamera, error) {
	var frames []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			frames = append(frames, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && isImageFile(e.Name()) {
				names = append(names, filepath.Join(p, e.Name()))
			}
		}
		sort.Strings(names)
		frames = append(frames, names...)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frame images in %s", strings.Join(paths, ", "))
	}
	return &FileCamera{Paths: frames}, nil
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	}
	return false
}

// Open starts a replay stream. Facing is ignored.
func (c *FileCamera) Open(ctx context.Context, _ Facing) (MediaStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &fileStream{paths: c.Paths, loop: c.Loop, track: &FileTrack{}}, nil
}

// FileTrack is the single video track of a replay stream
type FileTrack struct {
	mu      sync.Mutex
	stopped bool
}

// Kind returns "video"
func (t *FileTrack) Kind() string { return "video" }

// Stop releases the track
func (t *FileTrack) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

// Stopped reports whether Stop was called
func (t *FileTrack) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type fileStream struct {
	mu    sync.Mutex
	paths []string
	next  int
	loop  bool
	track *FileTrack
}

func (s *fileStream) Tracks() []Track {
	return []Track{s.track}
}

func (s *fileStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.track.Stopped() {
		return nil, ErrStreamStopped
	}

	s.mu.Lock()
	if s.next >= len(s.paths) {
		if !s.loop || len(s.paths) == 0 {
			s.mu.Unlock()
			return nil, ErrStreamEnded
		}
		s.next = 0
	}
	path := s.paths[s.next]
	s.next++
	s.mu.Unlock()

	data, err := readFrameFile(path)
	if err != nil {
		return nil, err
	}
	return LoadImage(data)
}
