package browser

import (
	"golang.org/x/image/font"
)

// SoftwareEngineOption is a functional option applied to the software engine during construction via NewSoftwareEngine.
type SoftwareEngineOption func(*softwareEngine)

// WithFace sets the font face used to render page text.
//
// Parameters:
//   - face: the font face (defaults to basicfont.Face7x13)
//
// Returns:
//   - SoftwareEngineOption: a function that applies the face option to the engine
func WithFace(face font.Face) SoftwareEngineOption {
	return func(e *softwareEngine) {
		e.face = face
	}
}

// WithMaxResourceSize limits how many bytes of a custom-scheme response are read for one page.
//
// Parameters:
//   - n: the maximum response size in bytes (defaults to 4 MiB)
//
// Returns:
//   - SoftwareEngineOption: a function that applies the limit to the engine
func WithMaxResourceSize(n int64) SoftwareEngineOption {
	return func(e *softwareEngine) {
		e.maxResourceSize = n
	}
}

// WithCommandBuffer sets the capacity of each browser's message queue.
//
// Parameters:
//   - n: queued commands before producers block (defaults to 256)
//
// Returns:
//   - SoftwareEngineOption: a function that applies the capacity to the engine
func WithCommandBuffer(n int) SoftwareEngineOption {
	return func(e *softwareEngine) {
		e.commandBuffer = n
	}
}
