package web

import "embed"

// Static embeds the API description and the docs page.
//
//go:embed static
var Static embed.FS
