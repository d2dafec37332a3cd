package world

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/taigrr/emcee/pkg/math3d"
)

// The on-disk world format. It maps one to one onto the in-memory types,
// angles included (radians), so a save and load returns the same values.
type worldFile struct {
	Rooms   []roomFile   `yaml:"rooms"`
	Portals []portalFile `yaml:"portals"`
	Cameras []cameraFile `yaml:"cameras,omitempty"`
}

type roomFile struct {
	ID      RoomID           `yaml:"id"`
	Dims    [3]float64       `yaml:"dims,flow"`
	Portals []roomPortalFile `yaml:"portals,omitempty"`
}

type roomPortalFile struct {
	Portal PortalID   `yaml:"portal"`
	Pos    [3]float64 `yaml:"pos,flow"`
	Rot    [4]float64 `yaml:"rot,flow"` // w, x, y, z
}

type portalFile struct {
	ID    PortalID   `yaml:"id"`
	Dims  [2]float64 `yaml:"dims,flow"`
	Rooms [2]RoomID  `yaml:"rooms,flow"`
}

type cameraFile struct {
	ID     CameraID   `yaml:"id"`
	FOV    float64    `yaml:"fov"` // vertical, radians
	Near   float64    `yaml:"near"`
	Far    float64    `yaml:"far"`
	Pos    [3]float64 `yaml:"pos,flow"`
	Rot    [3]float64 `yaml:"rot,flow"` // pitch, yaw, roll in radians
	InRoom RoomID     `yaml:"in_room,omitempty"`
}

func vec3Array(v math3d.Vec3) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }
func arrayVec3(a [3]float64) math3d.Vec3 { return math3d.V3(a[0], a[1], a[2]) }

// MarshalYAML encodes the world in its file format.
func (w *World) MarshalYAML() (any, error) {
	var f worldFile
	for _, id := range w.roomOrder {
		r := w.rooms[id]
		rf := roomFile{ID: r.ID, Dims: vec3Array(r.Dims)}
		for _, rp := range r.Portals {
			rf.Portals = append(rf.Portals, roomPortalFile{
				Portal: rp.Portal,
				Pos:    vec3Array(rp.Pos),
				Rot:    [4]float64{rp.Rot.W, rp.Rot.X, rp.Rot.Y, rp.Rot.Z},
			})
		}
		f.Rooms = append(f.Rooms, rf)
	}
	for _, id := range w.portalOrder {
		p := w.portals[id]
		f.Portals = append(f.Portals, portalFile{
			ID:    p.ID,
			Dims:  [2]float64{p.Dims.X, p.Dims.Y},
			Rooms: p.Rooms,
		})
	}
	for _, id := range w.cameraOrder {
		c := w.cameras[id]
		f.Cameras = append(f.Cameras, cameraFile{
			ID:     c.ID,
			FOV:    c.FOV,
			Near:   c.Near,
			Far:    c.Far,
			Pos:    vec3Array(c.Pos),
			Rot:    [3]float64{c.Rot.Pitch, c.Rot.Yaw, c.Rot.Roll},
			InRoom: c.InRoom,
		})
	}
	return f, nil
}

// UnmarshalYAML decodes a world file. It does not validate; use
// DecodeYAML or LoadYAML for that.
func (w *World) UnmarshalYAML(node *yaml.Node) error {
	var f worldFile
	if err := node.Decode(&f); err != nil {
		return err
	}
	*w = *New()
	for _, rf := range f.Rooms {
		r := &Room{ID: rf.ID, Dims: arrayVec3(rf.Dims)}
		for _, rpf := range rf.Portals {
			r.Portals = append(r.Portals, RoomPortal{
				Portal: rpf.Portal,
				Pos:    arrayVec3(rpf.Pos),
				Rot:    math3d.Quat{W: rpf.Rot[0], X: rpf.Rot[1], Y: rpf.Rot[2], Z: rpf.Rot[3]}.Normalize(),
			})
		}
		if _, dup := w.rooms[r.ID]; dup {
			return fmt.Errorf("duplicate room id %s", r.ID)
		}
		w.insertRoom(r)
	}
	for _, pf := range f.Portals {
		if _, dup := w.portals[pf.ID]; dup {
			return fmt.Errorf("duplicate portal id %s", pf.ID)
		}
		w.insertPortal(&Portal{ID: pf.ID, Dims: math3d.V2(pf.Dims[0], pf.Dims[1]), Rooms: pf.Rooms})
	}
	for _, cf := range f.Cameras {
		if _, dup := w.cameras[cf.ID]; dup {
			return fmt.Errorf("duplicate camera id %s", cf.ID)
		}
		w.AddCamera(Camera{
			ID:     cf.ID,
			FOV:    cf.FOV,
			Near:   cf.Near,
			Far:    cf.Far,
			Pos:    arrayVec3(cf.Pos),
			Rot:    math3d.Euler{Pitch: cf.Rot[0], Yaw: cf.Rot[1], Roll: cf.Rot[2]},
			InRoom: cf.InRoom,
		})
	}
	return nil
}

// EncodeYAML writes w to out.
func EncodeYAML(out io.Writer, w *World) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(w); err != nil {
		return fmt.Errorf("encode world: %w", err)
	}
	return enc.Close()
}

// DecodeYAML reads and validates a world.
func DecodeYAML(in io.Reader) (*World, error) {
	w := New()
	if err := yaml.NewDecoder(in).Decode(w); err != nil {
		return nil, fmt.Errorf("decode world: %w", err)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// SaveYAML writes w to path.
func SaveYAML(path string, w *World) error {
	var buf bytes.Buffer
	if err := EncodeYAML(&buf, w); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// LoadYAML reads and validates the world stored at path.
func LoadYAML(path string) (*World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	w, err := DecodeYAML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}
