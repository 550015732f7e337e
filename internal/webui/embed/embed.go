package embed

import "embed"

// DistFS holds the browser page served at the server root.
//
//go:embed all:dist
var DistFS embed.FS
