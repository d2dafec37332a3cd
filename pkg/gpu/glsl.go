package gpu

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"
)

// Attribute names of the Vertex layout as seen by GLSL.
const (
	AttribPos       = "pos"
	AttribFaceColor = "face_color"
	UniformMatrix   = "transform_matrix"
)

var (
	versionRe = regexp.MustCompile(`^#version\s+(\d+)(\s+\w+)?\s*$`)
	declRe    = regexp.MustCompile(`^(?:layout\s*\([^)]*\)\s*)?(?:flat\s+|smooth\s+|noperspective\s+)?(in|out|uniform)\s+(?:(?:lowp|mediump|highp)\s+)?(\w+)\s+(\w+)\s*;`)
	mainRe    = regexp.MustCompile(`\bvoid\s+main\s*\(\s*(void)?\s*\)`)
)

// Decl is one in, out or uniform declaration of a shader stage.
type Decl struct {
	Storage string
	Type    string
	Name    string
	Line    int
}

// StageInterface is the externally visible surface of one GLSL stage.
type StageInterface struct {
	Version  string
	Inputs   []Decl
	Outputs  []Decl
	Uniforms []Decl
}

// Input returns the input declaration with the given name.
func (s StageInterface) Input(name string) (Decl, bool) { return find(s.Inputs, name) }

// Output returns the output declaration with the given name.
func (s StageInterface) Output(name string) (Decl, bool) { return find(s.Outputs, name) }

// Uniform returns the uniform declaration with the given name.
func (s StageInterface) Uniform(name string) (Decl, bool) { return find(s.Uniforms, name) }

func find(decls []Decl, name string) (Decl, bool) {
	for _, d := range decls {
		if d.Name == name {
			return d, true
		}
	}
	return Decl{}, false
}

// ParseStage reads the declarations of a GLSL stage. It is not a compiler:
// it checks the #version directive and the presence of main, and collects
// top-level in, out and uniform declarations one per line.
func ParseStage(program, stage, src string) (StageInterface, error) {
	var si StageInterface
	fail := func(line int, format string, args ...any) (StageInterface, error) {
		return StageInterface{}, &CompileError{
			Program: program,
			Stage:   stage,
			Log:     fmt.Sprintf("%d: %s", line, fmt.Sprintf(format, args...)),
		}
	}

	sc := bufio.NewScanner(strings.NewReader(src))
	n := 0
	inComment := false
	hasMain := false
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if inComment {
			end := strings.Index(line, "*/")
			if end < 0 {
				continue
			}
			inComment = false
			line = strings.TrimSpace(line[end+2:])
		}
		if i := strings.Index(line, "//"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if i := strings.Index(line, "/*"); i >= 0 {
			if !strings.Contains(line[i:], "*/") {
				inComment = true
			}
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}

		if si.Version == "" {
			m := versionRe.FindStringSubmatch(line)
			if m == nil {
				return fail(n, "expected #version directive, got %q", line)
			}
			si.Version = m[1]
			continue
		}

		if mainRe.MatchString(line) {
			hasMain = true
			continue
		}
		m := declRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		d := Decl{Storage: m[1], Type: m[2], Name: m[3], Line: n}
		switch d.Storage {
		case "in":
			si.Inputs = append(si.Inputs, d)
		case "out":
			si.Outputs = append(si.Outputs, d)
		case "uniform":
			si.Uniforms = append(si.Uniforms, d)
		}
	}
	if err := sc.Err(); err != nil {
		return fail(n, "%v", err)
	}
	if si.Version == "" {
		return fail(n, "empty shader")
	}
	if !hasMain {
		return fail(n, "no main function")
	}
	return si, nil
}

// CheckProgram parses both stages of src and matches them against each
// other and against the Vertex layout. Problems that would make a real
// driver reject the program are errors; attributes and uniforms the
// renderer cannot feed are returned as warnings.
func CheckProgram(src ProgramSource) (vert, frag StageInterface, warnings []string, err error) {
	vert, err = ParseStage(src.Name, "vertex", src.Vertex)
	if err != nil {
		return vert, frag, nil, err
	}
	frag, err = ParseStage(src.Name, "fragment", src.Fragment)
	if err != nil {
		return vert, frag, nil, err
	}

	linkErr := func(format string, args ...any) error {
		return &CompileError{Program: src.Name, Stage: "link", Log: fmt.Sprintf(format, args...)}
	}

	pos, ok := vert.Input(AttribPos)
	if !ok {
		return vert, frag, nil, linkErr("vertex stage does not read %s", AttribPos)
	}
	if pos.Type != "vec3" && pos.Type != "vec4" {
		return vert, frag, nil, linkErr("%s must be vec3 or vec4, got %s", AttribPos, pos.Type)
	}
	for _, in := range vert.Inputs {
		switch in.Name {
		case AttribPos:
		case AttribFaceColor:
			if in.Type != "vec4" && in.Type != "vec3" {
				return vert, frag, nil, linkErr("%s must be vec3 or vec4, got %s", AttribFaceColor, in.Type)
			}
		default:
			warnings = append(warnings, fmt.Sprintf("vertex:%d: attribute %q is not in the vertex layout and reads as zero", in.Line, in.Name))
		}
	}

	for _, in := range frag.Inputs {
		out, ok := vert.Output(in.Name)
		if !ok {
			return vert, frag, nil, linkErr("fragment input %q has no matching vertex output", in.Name)
		}
		if out.Type != in.Type {
			return vert, frag, nil, linkErr("%q is %s in the vertex stage and %s in the fragment stage", in.Name, out.Type, in.Type)
		}
	}
	if len(frag.Outputs) == 0 {
		return vert, frag, nil, linkErr("fragment stage declares no color output")
	}

	for _, stage := range []StageInterface{vert, frag} {
		for _, u := range stage.Uniforms {
			if u.Name != UniformMatrix {
				warnings = append(warnings, fmt.Sprintf("uniform %q is never set", u.Name))
			}
		}
	}
	if _, ok := vert.Uniform(UniformMatrix); !ok {
		warnings = append(warnings, fmt.Sprintf("vertex stage does not declare %s; geometry is drawn untransformed", UniformMatrix))
	}
	if vert.Version != frag.Version {
		warnings = append(warnings, fmt.Sprintf("stage versions differ: vertex %s, fragment %s", vert.Version, frag.Version))
	}
	return vert, frag, warnings, nil
}
