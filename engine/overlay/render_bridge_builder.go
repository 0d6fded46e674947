package overlay

import "github.com/Carmen-Shannon/automation/tools/worker"

// RenderBridgeBuilderOption is a functional option for configuring a RenderBridge.
type RenderBridgeBuilderOption func(*renderBridge)

// WithSurfaceSize sets the browser surface size. Non-positive values are ignored.
//
// Parameters:
//   - width, height: the surface size in pixels
//
// Returns:
//   - RenderBridgeBuilderOption: a function that applies the surface size
func WithSurfaceSize(width, height int) RenderBridgeBuilderOption {
	return func(b *renderBridge) {
		if width > 0 && height > 0 {
			b.width, b.height = width, height
		}
	}
}

// WithPixelFormat sets the byte order of painted buffers.
//
// Parameters:
//   - format: the pixel format
//
// Returns:
//   - RenderBridgeBuilderOption: a function that applies the pixel format
func WithPixelFormat(format PixelFormat) RenderBridgeBuilderOption {
	return func(b *renderBridge) {
		b.format = format
	}
}

// WithFrameCopy makes OnPaint copy each frame into memory owned by the bridge, so the browser
// may reuse its buffer immediately.
//
// Parameters:
//   - enabled: whether to copy frames
//
// Returns:
//   - RenderBridgeBuilderOption: a function that applies the mode
func WithFrameCopy(enabled bool) RenderBridgeBuilderOption {
	return func(b *renderBridge) {
		b.frameCopy = enabled
	}
}

// WithActive sets the initial active state.
//
// Parameters:
//   - active: whether OnPresent draws
//
// Returns:
//   - RenderBridgeBuilderOption: a function that applies the state
func WithActive(active bool) RenderBridgeBuilderOption {
	return func(b *renderBridge) {
		b.active.Store(active)
	}
}

// WithWorkerPool shares an existing worker pool for packing staged uploads.
//
// Parameters:
//   - pool: the pool
//   - workers: the number of workers in the pool
//
// Returns:
//   - RenderBridgeBuilderOption: a function that applies the pool
func WithWorkerPool(pool worker.DynamicWorkerPool, workers int) RenderBridgeBuilderOption {
	return func(b *renderBridge) {
		b.pool = pool
		b.poolSize = workers
	}
}

// WithUploadWorkers sets the size of the pool the bridge creates for staged uploads. Values
// below 2 pack every region on the render goroutine.
//
// Parameters:
//   - workers: the number of workers
//
// Returns:
//   - RenderBridgeBuilderOption: a function that applies the worker count
func WithUploadWorkers(workers int) RenderBridgeBuilderOption {
	return func(b *renderBridge) {
		b.poolSize = workers
	}
}

// WithStripeRows sets how many rows one worker packs. Regions shorter than two stripes are
// packed on the render goroutine.
//
// Parameters:
//   - rows: the stripe height
//
// Returns:
//   - RenderBridgeBuilderOption: a function that applies the stripe height
func WithStripeRows(rows int) RenderBridgeBuilderOption {
	return func(b *renderBridge) {
		if rows > 0 {
			b.stripeRows = rows
		}
	}
}
