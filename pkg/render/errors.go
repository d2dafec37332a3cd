package render

import "fmt"

// Build stages reported by BuildError.
const (
	StageRead    = "read"
	StageCompile = "compile"
	StageLink    = "link"
	StageBuffer  = "buffer"
)

// BuildError is a renderer construction failure. Asset names the shader
// file or program involved.
type BuildError struct {
	Stage string
	Asset string
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("render: %s %s: %v", e.Stage, e.Asset, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
