package world

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/emcee/pkg/math3d"
)

func twoRooms(t *testing.T) (*World, RoomID, RoomID, PortalID) {
	t.Helper()
	w := New()
	a := w.AddRoom(math3d.V3(128, 128, 128))
	b := w.AddRoom(math3d.V3(64, 64, 64))
	p, err := w.AddPortal(math3d.V2(32, 32),
		a, RoomPortal{Pos: math3d.V3(64, 0, 32), Rot: math3d.QuatIdentity()},
		b, RoomPortal{Pos: math3d.V3(32, 0, 32), Rot: math3d.QuatIdentity()},
	)
	require.NoError(t, err)
	return w, a, b, p
}

func TestOtherRoom(t *testing.T) {
	a, b, stranger := NewRoomID(), NewRoomID(), NewRoomID()
	p := Portal{ID: NewPortalID(), Dims: math3d.V2(1, 1), Rooms: [2]RoomID{a, b}}

	got, ok := p.OtherRoom(a)
	assert.True(t, ok)
	assert.Equal(t, b, got)

	got, ok = p.OtherRoom(b)
	assert.True(t, ok)
	assert.Equal(t, a, got)

	_, ok = p.OtherRoom(stranger)
	assert.False(t, ok)

	_, ok = p.OtherRoom(RoomID{})
	assert.False(t, ok)
}

func TestLookupsReportMisses(t *testing.T) {
	w, a, _, p := twoRooms(t)

	_, ok := w.Room(NewRoomID())
	assert.False(t, ok)
	_, ok = w.Portal(NewPortalID())
	assert.False(t, ok)
	_, ok = w.Camera(NewCameraID())
	assert.False(t, ok)
	_, ok = w.PortalsOf(NewRoomID())
	assert.False(t, ok)

	portals, ok := w.PortalsOf(a)
	require.True(t, ok)
	require.Len(t, portals, 1)
	assert.Equal(t, p, portals[0].Portal)
}

func TestPortalsOfKeepsStoredOrder(t *testing.T) {
	w := New()
	hub := w.AddRoom(math3d.V3(10, 10, 10))
	var want []PortalID
	for i := range 4 {
		other := w.AddRoom(math3d.V3(5, 5, 5))
		id, err := w.AddPortal(math3d.V2(1, 1),
			hub, RoomPortal{Pos: math3d.V3(float64(i+1), 0, 2), Rot: math3d.QuatIdentity()},
			other, RoomPortal{Rot: math3d.QuatIdentity()},
		)
		require.NoError(t, err)
		want = append(want, id)
	}

	portals, ok := w.PortalsOf(hub)
	require.True(t, ok)
	var got []PortalID
	for _, rp := range portals {
		got = append(got, rp.Portal)
	}
	assert.Equal(t, want, got)
}

func TestFirstRoom(t *testing.T) {
	w := New()
	_, ok := w.FirstRoom()
	assert.False(t, ok)

	first := w.AddRoom(math3d.V3(1, 1, 1))
	for range 10 {
		w.AddRoom(math3d.V3(1, 1, 1))
	}
	got, ok := w.FirstRoom()
	require.True(t, ok)
	assert.Equal(t, first, got)
}

func TestAddPortalRejectsBadLinks(t *testing.T) {
	w := New()
	a := w.AddRoom(math3d.V3(1, 1, 1))

	_, err := w.AddPortal(math3d.V2(1, 1), a, RoomPortal{}, NewRoomID(), RoomPortal{})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = w.AddPortal(math3d.V2(1, 1), a, RoomPortal{}, a, RoomPortal{})
	assert.ErrorIs(t, err, ErrInvalidWorld)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(w *World, a, b RoomID, p PortalID)
		want   error
	}{
		{"valid", func(*World, RoomID, RoomID, PortalID) {}, nil},
		{"dangling placement", func(w *World, a, _ RoomID, _ PortalID) {
			w.rooms[a].Portals = append(w.rooms[a].Portals, RoomPortal{Portal: NewPortalID()})
		}, ErrPortalNotFound},
		{"dangling link", func(w *World, _, b RoomID, _ PortalID) {
			delete(w.rooms, b)
			w.roomOrder = w.roomOrder[:1]
		}, ErrRoomNotFound},
		{"self loop", func(w *World, a, _ RoomID, p PortalID) {
			w.portals[p].Rooms = [2]RoomID{a, a}
		}, ErrInvalidWorld},
		{"flat room", func(w *World, a, _ RoomID, _ PortalID) {
			w.rooms[a].Dims.Z = 0
		}, ErrInvalidWorld},
		{"camera in unknown room", func(w *World, _, _ RoomID, _ PortalID) {
			c := NewCamera()
			c.InRoom = NewRoomID()
			w.AddCamera(c)
		}, ErrRoomNotFound},
		{"inverted clip planes", func(w *World, _, _ RoomID, _ PortalID) {
			c := NewCamera()
			c.Near, c.Far = 10, 1
			w.AddCamera(c)
		}, ErrInvalidWorld},
		{"pitch past vertical", func(w *World, _, _ RoomID, _ PortalID) {
			c := NewCamera()
			c.Rot.Pitch = math.Pi/2 + 1e-9
			w.AddCamera(c)
		}, ErrInvalidWorld},
		{"unwrapped yaw", func(w *World, _, _ RoomID, _ PortalID) {
			c := NewCamera()
			c.Rot.Yaw = 2 * math.Pi
			w.AddCamera(c)
		}, ErrInvalidWorld},
		{"negative roll", func(w *World, _, _ RoomID, _ PortalID) {
			c := NewCamera()
			c.Rot.Roll = -0.1
			w.AddCamera(c)
		}, ErrInvalidWorld},
		{"pitch at the pole", func(w *World, _, _ RoomID, _ PortalID) {
			c := NewCamera()
			c.Rot.Pitch = -math.Pi / 2
			w.AddCamera(c)
		}, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, a, b, p := twoRooms(t)
			tc.mutate(w, a, b, p)
			err := w.Validate()
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, ErrInvalidWorld)
		})
	}
}

func TestCameraRotatePolicy(t *testing.T) {
	tests := []struct {
		name  string
		delta math3d.Euler
		want  math3d.Euler
	}{
		{"pitch pins at +90°", math3d.Euler{Pitch: math3d.Radians(200)}, math3d.Euler{Pitch: math.Pi / 2}},
		{"pitch pins at -90°", math3d.Euler{Pitch: math3d.Radians(-91)}, math3d.Euler{Pitch: -math.Pi / 2}},
		{"yaw wraps past 360°", math3d.Euler{Yaw: math3d.Radians(370)}, math3d.Euler{Yaw: math3d.Radians(10)}},
		{"negative yaw wraps", math3d.Euler{Yaw: math3d.Radians(-30)}, math3d.Euler{Yaw: math3d.Radians(330)}},
		{"roll wraps", math3d.Euler{Roll: math3d.Radians(-450)}, math3d.Euler{Roll: math3d.Radians(270)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCamera()
			c.Rotate(tc.delta)
			assert.InDelta(t, tc.want.Pitch, c.Rot.Pitch, 1e-9)
			assert.InDelta(t, tc.want.Yaw, c.Rot.Yaw, 1e-9)
			assert.InDelta(t, tc.want.Roll, c.Rot.Roll, 1e-9)
		})
	}
}

func TestCameraRotateStaysInRange(t *testing.T) {
	c := NewCamera()
	for i := range 1000 {
		step := float64(i%37) - 18
		c.Rotate(math3d.Euler{Pitch: step * 0.1, Yaw: step * 0.77, Roll: -step * 1.3})
		require.GreaterOrEqual(t, c.Rot.Pitch, -math.Pi/2)
		require.LessOrEqual(t, c.Rot.Pitch, math.Pi/2)
		require.GreaterOrEqual(t, c.Rot.Yaw, 0.0)
		require.Less(t, c.Rot.Yaw, 2*math.Pi)
		require.GreaterOrEqual(t, c.Rot.Roll, 0.0)
		require.Less(t, c.Rot.Roll, 2*math.Pi)
	}
}

func TestMoveDirectionIgnoresPitch(t *testing.T) {
	tests := []struct {
		name string
		yaw  float64
		dir  math3d.Vec3
		want math3d.Vec3
	}{
		{"forward at yaw 0 is +Y", 0, math3d.V3(0, 0, 1), math3d.V3(0, 1, 0)},
		{"right at yaw 0 is +X", 0, math3d.V3(1, 0, 0), math3d.V3(1, 0, 0)},
		{"up is +Z", 1.2, math3d.V3(0, 1, 0), math3d.V3(0, 0, 1)},
		{"forward at yaw 90° is +X", math.Pi / 2, math3d.V3(0, 0, 1), math3d.V3(1, 0, 0)},
		{"right at yaw 90° is -Y", math.Pi / 2, math3d.V3(1, 0, 0), math3d.V3(0, -1, 0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := MoveDirection(tc.yaw, tc.dir)
			assert.True(t, got.Approx(tc.want, 1e-9), "got %v want %v", got, tc.want)
		})
	}

	level, tilted := NewCamera(), NewCamera()
	tilted.Rot.Pitch, tilted.Rot.Roll = 1.2, 0.4
	level.Move(math3d.V3(1, 1, 1))
	tilted.Move(math3d.V3(1, 1, 1))
	assert.True(t, level.Pos.Approx(tilted.Pos, 1e-9))
}

func TestYAMLRoundTrip(t *testing.T) {
	w, cam := Demo()
	require.NoError(t, w.Validate())

	var buf bytes.Buffer
	require.NoError(t, EncodeYAML(&buf, w))
	assert.Contains(t, buf.String(), "in_room:")

	got, err := DecodeYAML(&buf)
	require.NoError(t, err)

	assert.Equal(t, w.RoomIDs(), got.RoomIDs())
	assert.Equal(t, w.PortalIDs(), got.PortalIDs())
	for _, id := range w.RoomIDs() {
		want, _ := w.Room(id)
		have, ok := got.Room(id)
		require.True(t, ok)
		assert.Equal(t, want, have)
	}
	for _, id := range w.PortalIDs() {
		want, _ := w.Portal(id)
		have, ok := got.Portal(id)
		require.True(t, ok)
		assert.Equal(t, want, have)
	}
	wc, _ := w.Camera(cam)
	gc, ok := got.Camera(cam)
	require.True(t, ok)
	assert.Equal(t, wc, gc)
}

func TestYAMLRoundTripKeepsCameraPoseExact(t *testing.T) {
	w, cam := Demo()
	require.NoError(t, w.UpdateCamera(cam, func(c *Camera) {
		c.FOV = math3d.Radians(73)
		c.Rot = math3d.Euler{Pitch: -math.Pi / 2, Yaw: math.Pi - 1e-15, Roll: 0.1}
		c.Pos = math3d.V3(1.0/3, 2.0/3, 100.1)
	}))

	var buf bytes.Buffer
	require.NoError(t, EncodeYAML(&buf, w))
	got, err := DecodeYAML(&buf)
	require.NoError(t, err)

	want, _ := w.Camera(cam)
	have, ok := got.Camera(cam)
	require.True(t, ok)
	assert.Equal(t, want, have)
}

func TestDecodeRejectsBrokenGraph(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"dangling placement", `
rooms:
  - id: 6f1c8a34-2d0e-4c1e-9b59-0b5a2f6b7c11
    dims: [10, 10, 10]
    portals:
      - portal: 0d6c3a7e-55b1-4e0a-8b7e-3f0c8f7c2a22
        pos: [1, 0, 1]
        rot: [1, 0, 0, 0]
portals: []
`, ErrPortalNotFound},
		{"camera pose out of range", `
rooms:
  - id: 6f1c8a34-2d0e-4c1e-9b59-0b5a2f6b7c11
    dims: [10, 10, 10]
portals: []
cameras:
  - id: 2b7e1f0a-9c3d-4e5f-8a6b-7c8d9e0f1a2b
    fov: 1.5
    near: 0.1
    far: 100
    pos: [1, 1, 1]
    rot: [2.6, 15.7, 0]
    in_room: 6f1c8a34-2d0e-4c1e-9b59-0b5a2f6b7c11
`, ErrInvalidWorld},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeYAML(strings.NewReader(tc.doc))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSaveLoadFile(t *testing.T) {
	w, _ := Demo()
	path := filepath.Join(t.TempDir(), "world.yaml")
	require.NoError(t, SaveYAML(path, w))

	got, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, w.RoomIDs(), got.RoomIDs())

	_, err = LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestStoreSetCameraPoseVisibleToReaders(t *testing.T) {
	w, cam := Demo()
	s := NewStore(w)
	room, _ := w.FirstRoom()

	pos := math3d.V3(1, 2, 3)
	rot := math3d.Euler{Yaw: 0.5}
	require.NoError(t, s.SetCameraPose(cam, pos, rot, room))

	s.View(func(w *World) {
		c, ok := w.Camera(cam)
		require.True(t, ok)
		assert.Equal(t, pos, c.Pos)
		assert.Equal(t, rot, c.Rot)
		assert.Equal(t, room, c.InRoom)
	})

	assert.ErrorIs(t, s.SetCameraPose(NewCameraID(), pos, rot, room), ErrCameraNotFound)
	assert.ErrorIs(t, s.SetCameraPose(cam, pos, rot, NewRoomID()), ErrRoomNotFound)
}

func TestStoreConcurrentAccess(t *testing.T) {
	w, cam := Demo()
	s := NewStore(w)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Update(func(w *World) error {
				return w.UpdateCamera(cam, func(c *Camera) { c.Rotate(math3d.Euler{Yaw: float64(i)}) })
			})
		}()
		go func() {
			defer wg.Done()
			s.View(func(w *World) { _, _ = w.Camera(cam) })
		}()
	}
	wg.Wait()

	s.View(func(w *World) {
		c, _ := w.Camera(cam)
		assert.GreaterOrEqual(t, c.Rot.Yaw, 0.0)
	})
}

func TestCloneIsDeep(t *testing.T) {
	w, _, _, _ := twoRooms(t)
	c := w.Clone()
	first, _ := c.FirstRoom()
	c.rooms[first].Portals[0].Pos = math3d.V3(-1, -1, -1)

	orig, _ := w.Room(first)
	assert.NotEqual(t, math3d.V3(-1, -1, -1), orig.Portals[0].Pos)
}

func TestStoreSnapshotIsDetached(t *testing.T) {
	w, cam := Demo()
	s := NewStore(w)

	snap := s.Snapshot()
	require.NoError(t, s.SetCameraPose(cam, math3d.V3(5, 5, 5), math3d.Euler{}, RoomID{}))

	c, ok := snap.Camera(cam)
	require.True(t, ok)
	assert.Equal(t, math3d.V3(96, 96, 96), c.Pos)
	_, placed := c.Room()
	assert.True(t, placed)
}
