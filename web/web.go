// Package web holds the admin UI templates, compiled into the binary.
package web

import "embed"

//go:embed templates/*.html
var Templates embed.FS
