// Package embedded carries the built-in visualizer page served when no
// static directory is configured or present.
package embedded

import (
	"embed"
	"io/fs"
)

//go:embed public/*
var files embed.FS

// Public returns the embedded web root.
func Public() fs.FS {
	sub, err := fs.Sub(files, "public")
	if err != nil {
		panic(err)
	}
	return sub
}
