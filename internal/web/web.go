// Package web embeds the cafe finder page. The page only renders views
// returned by the API and forwards user input and geolocation results.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var static embed.FS

// Static returns the page assets rooted at index.html.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
