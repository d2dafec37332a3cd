// Package export writes a world as a binary glTF scene, every room placed
// where it appears when looking through the portals from a root room.
package export

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/taigrr/emcee/pkg/geometry"
	"github.com/taigrr/emcee/pkg/math3d"
	"github.com/taigrr/emcee/pkg/projection"
	"github.com/taigrr/emcee/pkg/world"
)

// ErrRootNotFound is returned when the root room is not in the world.
var ErrRootNotFound = errors.New("export: root room not found")

// PortalColor is the vertex color of exported portal quads.
var PortalColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Placement is a room reached from the root and its transform into the
// root room's frame.
type Placement struct {
	Room      world.RoomID
	Transform math3d.Mat4
	Depth     int // portals crossed from the root
}

// Layout walks the portal graph breadth first from root. Each room is
// placed once, through the first path that reaches it; rooms not
// connected to root are left out.
func Layout(w *world.World, root world.RoomID) ([]Placement, error) {
	if _, ok := w.Room(root); !ok {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}
	placed := map[world.RoomID]bool{root: true}
	queue := []Placement{{Room: root, Transform: math3d.Identity()}}
	for i := 0; i < len(queue); i++ {
		cur := queue[i]
		room, _ := w.Room(cur.Room)
		for _, near := range room.Portals {
			portal, ok := w.Portal(near.Portal)
			if !ok {
				continue
			}
			otherID, ok := portal.OtherRoom(cur.Room)
			if !ok || placed[otherID] {
				continue
			}
			other, ok := w.Room(otherID)
			if !ok {
				continue
			}
			offset := projection.PortalOffset(near)
			if far, ok := other.Placement(portal.ID); ok {
				offset = projection.PortalLink(near, far)
			}
			placed[otherID] = true
			queue = append(queue, Placement{
				Room:      otherID,
				Transform: cur.Transform.Mul(offset),
				Depth:     cur.Depth + 1,
			})
		}
	}
	return queue, nil
}

// Document builds the glTF document for the rooms reachable from root.
// Room frames are Z-up; a root node converts them to glTF's Y-up frame.
// Each portal is exported once, in the first room that places it.
func Document(w *world.World, root world.RoomID) (*gltf.Document, error) {
	layout, err := Layout(w, root)
	if err != nil {
		return nil, err
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "emcee"
	top := addNode(doc, &gltf.Node{Name: "world", Matrix: [16]float64(projection.AxisInversion.Mat4())})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, top)

	exported := map[world.PortalID]bool{}
	for _, pl := range layout {
		room, _ := w.Room(pl.Room)
		verts, indices := geometry.RoomToTriangles(room.Dims)
		positions := make([][3]float32, len(verts))
		colors := make([][4]uint8, len(verts))
		for i, v := range verts {
			positions[i] = v.Pos.Array()
			colors[i] = [4]uint8{v.Color.R, v.Color.G, v.Color.B, v.Color.A}
		}
		mesh := addMesh(doc, "room "+pl.Room.String(), positions, colors, flipWinding(indices[:]))
		roomNode := addNode(doc, &gltf.Node{
			Name:   "room " + pl.Room.String(),
			Mesh:   gltf.Index(mesh),
			Matrix: [16]float64(pl.Transform),
		})
		doc.Nodes[top].Children = append(doc.Nodes[top].Children, roomNode)

		for _, rp := range room.Portals {
			portal, ok := w.Portal(rp.Portal)
			if !ok || exported[portal.ID] {
				continue
			}
			exported[portal.ID] = true
			quad := geometry.PortalQuad(rp.Pos, portal.Dims, rp.Rot)
			positions := make([][3]float32, len(quad))
			colors := make([][4]uint8, len(quad))
			for i, p := range quad {
				positions[i] = p.Array()
				colors[i] = [4]uint8{PortalColor.R, PortalColor.G, PortalColor.B, PortalColor.A}
			}
			pmesh := addMesh(doc, "portal "+portal.ID.String(), positions, colors, flipWinding(geometry.PortalIndices[:]))
			pnode := addNode(doc, &gltf.Node{Name: "portal " + portal.ID.String(), Mesh: gltf.Index(pmesh)})
			doc.Nodes[roomNode].Children = append(doc.Nodes[roomNode].Children, pnode)
		}
	}
	return doc, nil
}

// WriteGLB encodes the rooms reachable from root as binary glTF.
func WriteGLB(out io.Writer, w *world.World, root world.RoomID) error {
	doc, err := Document(w, root)
	if err != nil {
		return err
	}
	enc := gltf.NewEncoder(out)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode glb: %w", err)
	}
	return nil
}

func addNode(doc *gltf.Document, n *gltf.Node) int {
	doc.Nodes = append(doc.Nodes, n)
	return len(doc.Nodes) - 1
}

func addMesh(doc *gltf.Document, name string, positions [][3]float32, colors [][4]uint8, indices []uint16) int {
	prim := &gltf.Primitive{
		Indices: gltf.Index(modeler.WriteIndices(doc, indices)),
		Attributes: map[string]int{
			gltf.POSITION: modeler.WritePosition(doc, positions),
			gltf.COLOR_0:  modeler.WriteColor(doc, colors),
		},
	}
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: name, Primitives: []*gltf.Primitive{prim}})
	return len(doc.Meshes) - 1
}

// flipWinding swaps the last two indices of every triangle. Room faces are
// clockwise seen from inside; glTF front faces are counter-clockwise.
func flipWinding(indices []uint16) []uint16 {
	out := make([]uint16, len(indices))
	for i := 0; i+2 < len(indices); i += 3 {
		out[i], out[i+1], out[i+2] = indices[i], indices[i+2], indices[i+1]
	}
	return out
}
