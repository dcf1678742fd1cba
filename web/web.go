// Package web holds the admin panel's HTML templates.
package web

import "embed"

//go:embed templates/*.html
var Templates embed.FS
