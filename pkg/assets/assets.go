// Package assets holds the GLSL sources of the renderer programs.
package assets

import (
	"embed"
	"io/fs"
)

// Shader file names, relative to the root of an asset file system.
const (
	WorldVertex   = "world_geometry.vert"
	WorldFragment = "world_geometry.frag"
	PortalVertex  = "portal_geometry.vert"
)

//go:embed shaders/*.vert shaders/*.frag
var embedded embed.FS

// Shaders returns the built-in shader sources.
func Shaders() fs.FS {
	sub, err := fs.Sub(embedded, "shaders")
	if err != nil {
		// the directory is embedded at build time
		panic(err)
	}
	return sub
}

// Read returns the text of one shader file from fsys.
func Read(fsys fs.FS, name string) (string, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
