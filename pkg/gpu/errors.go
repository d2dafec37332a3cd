package gpu

import "fmt"

// CompileError is a shader stage that failed to compile, or a program
// that failed to link when Stage is "link".
type CompileError struct {
	Program string
	Stage   string
	Log     string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("gpu: %s: %s: %s", e.Program, e.Stage, e.Log)
}
