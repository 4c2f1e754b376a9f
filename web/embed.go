// Package web embeds the built portal static assets for single-binary
// distribution.
package web

import "embed"

// Assets contains the portal production build output. The build/ directory is
// produced by the frontend toolchain; a placeholder page is checked in so the
// server always has something to serve at /.
//
//go:embed all:build
var Assets embed.FS
