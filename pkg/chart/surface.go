package chart

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"git.sr.ht/~sbinet/gg"
)

// ErrSurfaceNotFound is returned when a chart names a surface nobody
// registered.
var ErrSurfaceNotFound = errors.New("drawing surface not found")

// Surface is the external drawing target a chart renders onto. Begin hands
// out a fresh drawing context sized for the frame; Commit publishes the
// finished frame. Charts never retain the context between renders, so a
// failed render leaves no half-acquired resources behind.
type Surface interface {
	Begin(width, height int) (*gg.Context, error)
	Commit(dc *gg.Context) error
}

var (
	surfaceMu sync.RWMutex
	surfaces  = make(map[string]Surface)
)

// RegisterSurface binds a surface to a name. Charts reference surfaces by
// name only and resolve the binding on every render.
func RegisterSurface(name string, s Surface) {
	surfaceMu.Lock()
	defer surfaceMu.Unlock()
	surfaces[name] = s
}

// UnregisterSurface removes a named surface.
func UnregisterSurface(name string) {
	surfaceMu.Lock()
	defer surfaceMu.Unlock()
	delete(surfaces, name)
}

// LookupSurface resolves a named surface.
func LookupSurface(name string) (Surface, error) {
	surfaceMu.RLock()
	defer surfaceMu.RUnlock()
	s, ok := surfaces[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSurfaceNotFound, name)
	}
	return s, nil
}

// ImageSurface keeps the last committed frame in memory for the host to
// blit or inspect.
type ImageSurface struct {
	frame image.Image
}

// NewImageSurface returns an empty in-memory surface.
func NewImageSurface() *ImageSurface {
	return &ImageSurface{}
}

// Begin returns a drawing context for a new frame.
func (s *ImageSurface) Begin(width, height int) (*gg.Context, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	return gg.NewContext(width, height), nil
}

// Commit stores the finished frame.
func (s *ImageSurface) Commit(dc *gg.Context) error {
	s.frame = dc.Image()
	return nil
}

// Image returns the last committed frame, or nil before the first commit.
func (s *ImageSurface) Image() image.Image {
	return s.frame
}

// FileSurface writes every committed frame to the same PNG path, so the
// newest render always wins.
type FileSurface struct {
	Path string
}

// Begin returns a drawing context for a new frame.
func (s *FileSurface) Begin(width, height int) (*gg.Context, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	return gg.NewContext(width, height), nil
}

// Commit writes the frame to the configured path.
func (s *FileSurface) Commit(dc *gg.Context) error {
	if s.Path == "" {
		return fmt.Errorf("file surface has no path")
	}
	return dc.SavePNG(s.Path)
}
