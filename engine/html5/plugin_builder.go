package html5

import (
	"github.com/Carmen-Shannon/oxy-html5/common"
	"github.com/Carmen-Shannon/oxy-html5/engine/overlay"
)

// PluginBuilderOption is a functional option for configuring a Plugin.
type PluginBuilderOption func(*pluginImpl)

// WithSurfaceSize sets the browser surface size. Non-positive values are ignored.
//
// Parameters:
//   - width, height: the surface size in pixels
//
// Returns:
//   - PluginBuilderOption: a function that applies the size
func WithSurfaceSize(width, height int) PluginBuilderOption {
	return func(p *pluginImpl) {
		if width > 0 && height > 0 {
			p.width, p.height = width, height
		}
	}
}

// WithStartURL sets the page opened by Init. An empty URL keeps the default.
//
// Parameters:
//   - url: the start page
//
// Returns:
//   - PluginBuilderOption: a function that applies the URL
func WithStartURL(url string) PluginBuilderOption {
	return func(p *pluginImpl) {
		p.startURL = common.Coalesce(url, p.startURL)
	}
}

// WithScheme sets the URL scheme served from the Context archive. An empty scheme keeps "app".
//
// Parameters:
//   - scheme: the scheme without "://"
//
// Returns:
//   - PluginBuilderOption: a function that applies the scheme
func WithScheme(scheme string) PluginBuilderOption {
	return func(p *pluginImpl) {
		p.scheme = common.Coalesce(scheme, p.scheme)
	}
}

// WithRemoteDebuggingPort sets the inspector port. Zero disables remote debugging.
func WithRemoteDebuggingPort(port int) PluginBuilderOption {
	return func(p *pluginImpl) {
		p.remoteDebuggingPort = port
	}
}

// WithAlphaThreshold sets the opacity threshold, in [0, 1], used by IsOpaque.
func WithAlphaThreshold(threshold float32) PluginBuilderOption {
	return func(p *pluginImpl) {
		p.alphaThreshold = threshold
	}
}

// WithFrameCopy controls whether the overlay copies each painted frame. Engines that repaint into
// the same buffer while a frame is uploading need it; it is on by default.
func WithFrameCopy(enabled bool) PluginBuilderOption {
	return func(p *pluginImpl) {
		p.frameCopy = enabled
	}
}

// WithPixelFormat sets the byte order the browser engine paints in.
func WithPixelFormat(format overlay.PixelFormat) PluginBuilderOption {
	return func(p *pluginImpl) {
		p.pixelFormat = format
	}
}

// WithActive sets whether rendering and input start enabled.
func WithActive(active bool) PluginBuilderOption {
	return func(p *pluginImpl) {
		p.active = active
	}
}
