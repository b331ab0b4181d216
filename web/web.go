package web

import "embed"

// Templates holds the page templates under templates/.
//
//go:embed templates
var Templates embed.FS

// Static holds the embedded web/static directory.
// Handlers access it via fs.Sub(Static, "static").
//
//go:embed static
var Static embed.FS
