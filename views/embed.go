// Package views embeds the HTML templates.
package views

import "embed"

//go:embed *.html layouts partials
var FS embed.FS
