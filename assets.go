// Package ternadmin embeds the admin UI templates into the binary.
package ternadmin

import "embed"

// TemplateFS holds web/templates. In dev mode the renderer reads the same tree from disk instead.
//
//go:embed all:web/templates
var TemplateFS embed.FS
