package chart

import (
	"github.com/goccy/go-json"
)

// ElementType tags which kind of logical element a hit-test resolved to.
type ElementType string

// The fixed hit-test vocabulary. Every chart maps pointer coordinates onto
// one of these, so the presentation layer can run a single generic tooltip
// renderer.
const (
	ElementNone    ElementType = "none"
	ElementBin     ElementType = "bin"
	ElementSegment ElementType = "segment"
	ElementCell    ElementType = "cell"
	ElementPoint   ElementType = "point"
	ElementNode    ElementType = "node"
)

// HitResult is the uniform outcome of every interactive pointer query. A
// miss carries the "none" type and no payload. The Data bag is type-specific
// descriptive detail for tooltips; the core forwards it without inspecting
// its contents.
type HitResult struct {
	Hit         bool           `json:"hit"`
	ElementID   string         `json:"element_id,omitempty"`
	ElementType ElementType    `json:"element_type"`
	Data        map[string]any `json:"data,omitempty"`
}

// Miss returns the canonical no-hit result.
func Miss() HitResult {
	return HitResult{ElementType: ElementNone}
}

// NewHit returns a hit on the given element with its tooltip payload.
func NewHit(id string, typ ElementType, data map[string]any) HitResult {
	return HitResult{Hit: true, ElementID: id, ElementType: typ, Data: data}
}

// JSON serializes the result for hosts that ferry it across a process or
// script boundary.
func (h HitResult) JSON() ([]byte, error) {
	return json.Marshal(h)
}
