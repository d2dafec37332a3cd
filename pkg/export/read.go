package export

import (
	"encoding/binary"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/qmuntal/gltf"

	"github.com/taigrr/emcee/pkg/math3d"
)

// Mesh is one triangle primitive read back from a glTF scene, in engine
// winding (clockwise front faces).
type Mesh struct {
	Name      string
	Transform math3d.Mat4 // node to scene root
	Positions []math3d.Vec3
	Colors    []color.RGBA
	Indices   []int
}

// ReadGLB decodes a binary glTF stream and flattens its default scene
// into meshes. Only node matrices are honored; TRS nodes read as
// identity.
func ReadGLB(in io.Reader) ([]Mesh, error) {
	var doc gltf.Document
	if err := gltf.NewDecoder(in).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode glb: %w", err)
	}
	return Meshes(&doc)
}

// Meshes flattens the default scene of doc.
func Meshes(doc *gltf.Document) ([]Mesh, error) {
	scene := 0
	if doc.Scene != nil {
		scene = *doc.Scene
	}
	if scene >= len(doc.Scenes) {
		return nil, nil
	}

	var out []Mesh
	var walk func(node int, parent math3d.Mat4) error
	walk = func(node int, parent math3d.Mat4) error {
		if node < 0 || node >= len(doc.Nodes) {
			return fmt.Errorf("node %d out of range", node)
		}
		n := doc.Nodes[node]
		m := math3d.Mat4(n.Matrix)
		if m == (math3d.Mat4{}) {
			m = math3d.Identity()
		}
		m = parent.Mul(m)
		if n.Mesh != nil {
			meshes, err := readMesh(doc, *n.Mesh)
			if err != nil {
				return fmt.Errorf("node %q: %w", n.Name, err)
			}
			for i := range meshes {
				meshes[i].Transform = m
			}
			out = append(out, meshes...)
		}
		for _, c := range n.Children {
			if err := walk(c, m); err != nil {
				return err
			}
		}
		return nil
	}
	for _, root := range doc.Scenes[scene].Nodes {
		if err := walk(root, math3d.Identity()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readMesh(doc *gltf.Document, idx int) ([]Mesh, error) {
	if idx < 0 || idx >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh %d out of range", idx)
	}
	m := doc.Meshes[idx]
	var out []Mesh
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return nil, fmt.Errorf("read positions: %w", err)
		}
		mesh := Mesh{Name: m.Name, Positions: positions}

		if colIdx, ok := prim.Attributes[gltf.COLOR_0]; ok {
			mesh.Colors, err = readColorAccessor(doc, colIdx)
			if err != nil {
				return nil, fmt.Errorf("read colors: %w", err)
			}
		}

		var indices []int
		if prim.Indices != nil {
			indices, err = readIndices(doc, *prim.Indices)
			if err != nil {
				return nil, fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]int, len(positions))
			for i := range indices {
				indices[i] = i
			}
		}
		// glTF front faces are counter-clockwise; swap back to ours
		for i := 0; i+2 < len(indices); i += 3 {
			indices[i+1], indices[i+2] = indices[i+2], indices[i+1]
		}
		mesh.Indices = indices
		out = append(out, mesh)
	}
	return out, nil
}

// accessorBytes returns the buffer bytes an accessor reads, the element
// stride and the element count.
func accessorBytes(doc *gltf.Document, idx int, elemSize int) ([]byte, int, int, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, 0, 0, fmt.Errorf("accessor %d out of range", idx)
	}
	acc := doc.Accessors[idx]
	if acc.BufferView == nil {
		return nil, 0, 0, fmt.Errorf("accessor %d has no buffer view", idx)
	}
	view := doc.BufferViews[*acc.BufferView]
	buf := doc.Buffers[view.Buffer]
	if buf.Data == nil {
		return nil, 0, 0, fmt.Errorf("buffer %d has no embedded data", view.Buffer)
	}
	stride := view.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	start := view.ByteOffset + acc.ByteOffset
	end := start + (acc.Count-1)*stride + elemSize
	if acc.Count > 0 && end > len(buf.Data) {
		return nil, 0, 0, fmt.Errorf("accessor %d reads past its buffer", idx)
	}
	return buf.Data[start:], stride, acc.Count, nil
}

func readVec3Accessor(doc *gltf.Document, idx int) ([]math3d.Vec3, error) {
	acc := doc.Accessors[idx]
	if acc.Type != gltf.AccessorVec3 || acc.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC3, got %v/%v", acc.Type, acc.ComponentType)
	}
	data, stride, count, err := accessorBytes(doc, idx, 12)
	if err != nil {
		return nil, err
	}
	out := make([]math3d.Vec3, count)
	for i := range count {
		b := data[i*stride:]
		out[i] = math3d.V3(float64(readFloat32(b)), float64(readFloat32(b[4:])), float64(readFloat32(b[8:])))
	}
	return out, nil
}

func readColorAccessor(doc *gltf.Document, idx int) ([]color.RGBA, error) {
	acc := doc.Accessors[idx]
	if acc.Type != gltf.AccessorVec4 || acc.ComponentType != gltf.ComponentUbyte {
		return nil, fmt.Errorf("expected ubyte VEC4 colors, got %v/%v", acc.Type, acc.ComponentType)
	}
	data, stride, count, err := accessorBytes(doc, idx, 4)
	if err != nil {
		return nil, err
	}
	out := make([]color.RGBA, count)
	for i := range count {
		b := data[i*stride:]
		out[i] = color.RGBA{R: b[0], G: b[1], B: b[2], A: b[3]}
	}
	return out, nil
}

func readIndices(doc *gltf.Document, idx int) ([]int, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	acc := doc.Accessors[idx]
	if acc.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR indices, got %v", acc.Type)
	}
	var size int
	switch acc.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unexpected index type: %v", acc.ComponentType)
	}
	data, stride, count, err := accessorBytes(doc, idx, size)
	if err != nil {
		return nil, err
	}
	out := make([]int, count)
	for i := range count {
		b := data[i*stride:]
		switch size {
		case 1:
			out[i] = int(b[0])
		case 2:
			out[i] = int(binary.LittleEndian.Uint16(b))
		case 4:
			out[i] = int(binary.LittleEndian.Uint32(b))
		}
	}
	return out, nil
}

func readFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
