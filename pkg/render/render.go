// Package render draws a world through its portals. Each frame marks the
// silhouettes of the active room's portals in the stencil buffer, draws
// the active room outside them, then draws every neighbouring room inside
// its own portal's silhouette.
package render

import (
	"errors"
	"image"
	"image/color"
	"io/fs"
	"log/slog"

	"github.com/taigrr/emcee/pkg/assets"
	"github.com/taigrr/emcee/pkg/geometry"
	"github.com/taigrr/emcee/pkg/gpu"
	"github.com/taigrr/emcee/pkg/math3d"
	"github.com/taigrr/emcee/pkg/projection"
	"github.com/taigrr/emcee/pkg/world"
)

// RoomBufferSize is the element capacity of each per-room buffer.
const RoomBufferSize = 1024

// Stats counts the draws of the last frame.
type Stats struct {
	Draws          int
	StencilDraws   int
	RoomDraws      int
	SkippedPortals int // beyond the stencil capacity or unresolved
}

// WorldRender draws the rooms of a world store with a gpu.Device. It owns
// every GPU resource it creates and must be used from the goroutine that
// owns the device.
type WorldRender struct {
	store *world.Store
	dev   gpu.Device

	worldProg  gpu.Program
	portalProg gpu.Program
	portalBuf  gpu.Buffer
	rooms      map[world.RoomID]gpu.Buffer

	maxStencil int
	warned     map[world.RoomID]bool

	stats Stats
}

// New builds the renderer programs from the shader files in fsys, or the
// built-in shaders when fsys is nil. A missing portal_geometry.vert falls
// back to world_geometry.vert. Failures are returned as *BuildError.
func New(store *world.Store, dev gpu.Device, fsys fs.FS) (*WorldRender, error) {
	if fsys == nil {
		fsys = assets.Shaders()
	}
	log := Logger()

	read := func(name string) (string, error) {
		src, err := assets.Read(fsys, name)
		if err != nil {
			return "", &BuildError{Stage: StageRead, Asset: name, Err: err}
		}
		return src, nil
	}
	vert, err := read(assets.WorldVertex)
	if err != nil {
		return nil, err
	}
	frag, err := read(assets.WorldFragment)
	if err != nil {
		return nil, err
	}
	portalVertName := assets.PortalVertex
	portalVert, err := read(portalVertName)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug("portal vertex shader missing, using world shader", "asset", assets.PortalVertex)
		portalVertName, portalVert = assets.WorldVertex, vert
	} else if err != nil {
		return nil, err
	}

	r := &WorldRender{
		store:  store,
		dev:    dev,
		rooms:  make(map[world.RoomID]gpu.Buffer),
		warned: make(map[world.RoomID]bool),
	}
	bits := min(dev.StencilBits(), 8)
	if bits > 0 {
		r.maxStencil = 1<<bits - 1
	} else {
		log.Warn("device has no stencil buffer, portals will not be drawn")
	}

	r.worldProg, err = r.buildProgram("world_geometry", assets.WorldVertex, vert, frag)
	if err != nil {
		return nil, err
	}
	r.portalProg, err = r.buildProgram("portal_geometry", portalVertName, portalVert, frag)
	if err != nil {
		r.worldProg.Release()
		return nil, err
	}
	r.portalBuf, err = dev.NewBuffer(geometry.PortalVertexCount, geometry.PortalIndexCount)
	if err != nil {
		r.worldProg.Release()
		r.portalProg.Release()
		return nil, &BuildError{Stage: StageBuffer, Asset: "portal_geometry", Err: err}
	}
	return r, nil
}

func (r *WorldRender) buildProgram(name, vertName, vert, frag string) (gpu.Program, error) {
	prog, err := r.dev.NewProgram(gpu.ProgramSource{Name: name, Vertex: vert, Fragment: frag})
	if err != nil {
		be := &BuildError{Stage: StageCompile, Asset: name, Err: err}
		var ce *gpu.CompileError
		if errors.As(err, &ce) {
			switch ce.Stage {
			case "vertex":
				be.Asset = vertName
			case "fragment":
				be.Asset = assets.WorldFragment
			case "link":
				be.Stage = StageLink
			}
		}
		return nil, be
	}
	for _, w := range prog.Warnings() {
		Logger().Warn(w, "target", "gl_program_warnings", "program", name)
	}
	return prog, nil
}

// Close releases every GPU resource of the renderer.
func (r *WorldRender) Close() {
	r.worldProg.Release()
	r.portalProg.Release()
	r.portalBuf.Release()
	for id, b := range r.rooms {
		b.Release()
		delete(r.rooms, id)
	}
}

// Stats returns the counters of the last DrawWorld call.
func (r *WorldRender) Stats() Stats {
	return r.stats
}

// StencilCapacity is the number of portals per room that can be masked.
func (r *WorldRender) StencilCapacity() int {
	return r.maxStencil
}

// DrawWorld draws the world as seen by camera into viewport of fb. Lookup
// misses never fail the frame: an unknown camera draws from the default
// pose and an unplaced camera falls back to the first room. A world with
// no rooms draws nothing. An empty viewport is a caller error and panics.
func (r *WorldRender) DrawWorld(camera world.CameraID, viewport image.Rectangle, fb gpu.Framebuffer) {
	r.store.View(func(w *world.World) {
		r.drawWorld(w, camera, viewport, fb)
	})
}

func (r *WorldRender) drawWorld(w *world.World, camID world.CameraID, viewport image.Rectangle, fb gpu.Framebuffer) {
	r.stats = Stats{}
	log := Logger()

	cam, ok := w.Camera(camID)
	if !ok {
		log.Debug("camera not found, using default pose", "camera", camID)
		cam = world.NewCamera()
		cam.ID = camID
	}
	activeID, room, ok := r.activeRoom(w, cam)
	if !ok {
		return
	}

	proj := projection.ProjectionMatrix(cam, viewport)
	view := projection.ViewMatrix(cam)
	roomTransform := projection.RoomTransform(proj, view)

	r.dev.Clear(fb, viewport, gpu.ClearDepth|gpu.ClearStencil, color.RGBA{})

	base := gpu.State{
		Cull:       gpu.CBack,
		Clockwise:  true,
		DepthTest:  true,
		DepthWrite: true,
		DepthCmp:   gpu.CLessEqual,
		ColorMask:  gpu.CAll,
		SRGB:       true,
		Viewport:   viewport,
	}

	// stencil value i+1 marks the i-th portal of the room
	usable := len(room.Portals)
	if usable > r.maxStencil {
		usable = r.maxStencil
		r.stats.SkippedPortals += len(room.Portals) - usable
		if !r.warned[activeID] {
			r.warned[activeID] = true
			log.Warn("room has more portals than stencil values, extra portals are not drawn",
				"room", activeID, "portals", len(room.Portals), "capacity", r.maxStencil)
		}
	}

	for i, rp := range room.Portals[:usable] {
		portal, ok := w.Portal(rp.Portal)
		if !ok {
			log.Debug("portal not found", "room", activeID, "portal", rp.Portal)
			continue
		}
		quad := geometry.PortalQuad(rp.Pos, portal.Dims, rp.Rot)
		var verts [geometry.PortalVertexCount]gpu.Vertex
		for k, p := range quad {
			verts[k] = gpu.V(p, color.RGBA{})
		}
		if err := r.portalBuf.Upload(verts[:], geometry.PortalIndices[:]); err != nil {
			log.Error("portal upload failed", "portal", rp.Portal, "err", err)
			continue
		}

		st := base
		st.DepthCmp = gpu.CAlways
		st.DepthWrite = false
		st.ColorMask = 0
		st.StencilTest = true
		st.Stencil = gpu.StencilT{
			Cmp:       gpu.CAlways,
			Ref:       uint8(i + 1),
			ReadMask:  0xff,
			WriteMask: 0xff,
			SFail:     gpu.SZero,
			DFail:     gpu.SZero,
			DPass:     gpu.SReplace,
		}
		r.draw(fb, r.portalProg, r.portalBuf, geometry.PortalIndexCount, roomTransform, st)
		r.stats.StencilDraws++
	}

	r.drawRoom(fb, activeID, room, roomTransform, masked(base, 0))

	for i, rp := range room.Portals[:usable] {
		portal, ok := w.Portal(rp.Portal)
		if !ok {
			r.stats.SkippedPortals++
			continue
		}
		otherID, ok := portal.OtherRoom(activeID)
		if !ok {
			log.Debug("portal does not link the active room", "room", activeID, "portal", rp.Portal)
			r.stats.SkippedPortals++
			continue
		}
		other, ok := w.Room(otherID)
		if !ok {
			log.Debug("room not found", "room", otherID, "portal", rp.Portal)
			r.stats.SkippedPortals++
			continue
		}

		offset := projection.PortalOffset(rp)
		if far, ok := other.Placement(portal.ID); ok {
			offset = projection.PortalLink(rp, far)
		}
		transform := projection.PortalTransform(proj, view, offset)
		r.drawRoom(fb, otherID, other, transform, masked(base, uint8(i+1)))
	}

	r.prune(w)
}

// activeRoom resolves the room the frame is drawn from, falling back to
// the first room of the world.
func (r *WorldRender) activeRoom(w *world.World, cam world.Camera) (world.RoomID, world.Room, bool) {
	log := Logger()
	if id, placed := cam.Room(); placed {
		if room, ok := w.Room(id); ok {
			return id, room, true
		}
		log.Debug("camera room not found", "camera", cam.ID, "room", id)
	}
	id, ok := w.FirstRoom()
	if !ok {
		return world.RoomID{}, world.Room{}, false
	}
	room, _ := w.Room(id)
	return id, room, true
}

func masked(base gpu.State, value uint8) gpu.State {
	st := base
	st.StencilTest = true
	st.Stencil = gpu.StencilT{
		Cmp:       gpu.CEqual,
		Ref:       value,
		ReadMask:  0xff,
		WriteMask: 0xff,
		SFail:     gpu.SKeep,
		DFail:     gpu.SKeep,
		DPass:     gpu.SKeep,
	}
	return st
}

func (r *WorldRender) drawRoom(fb gpu.Framebuffer, id world.RoomID, room world.Room, transform math3d.Mat4, st gpu.State) {
	buf, err := r.roomBuffer(id)
	if err != nil {
		Logger().Error("room buffer allocation failed", "room", id, "err", err)
		return
	}
	verts, indices := geometry.RoomToTriangles(room.Dims)
	var gv [geometry.RoomVertexCount]gpu.Vertex
	for i, v := range verts {
		gv[i] = gpu.V(v.Pos, v.Color)
	}
	if err := buf.Upload(gv[:], indices[:]); err != nil {
		Logger().Error("room upload failed", "room", id, "err", err)
		return
	}
	r.draw(fb, r.worldProg, buf, len(indices), transform, st)
	r.stats.RoomDraws++
}

func (r *WorldRender) draw(fb gpu.Framebuffer, prog gpu.Program, buf gpu.Buffer, count int, transform math3d.Mat4, st gpu.State) {
	r.dev.Draw(fb, gpu.Draw{
		Mode:     gpu.Triangles,
		Count:    count,
		Program:  prog,
		Buffer:   buf,
		Uniforms: gpu.Uniforms{TransformMatrix: transform},
		State:    st,
	})
	r.stats.Draws++
}

// roomBuffer returns the buffer of a room, allocating it on first use.
func (r *WorldRender) roomBuffer(id world.RoomID) (gpu.Buffer, error) {
	if b, ok := r.rooms[id]; ok {
		return b, nil
	}
	b, err := r.dev.NewBuffer(RoomBufferSize, RoomBufferSize)
	if err != nil {
		return nil, err
	}
	r.rooms[id] = b
	return b, nil
}

// prune releases buffers of rooms that left the world, as happens when
// the store is replaced by a reload.
func (r *WorldRender) prune(w *world.World) {
	rooms, _, _ := w.Len()
	if len(r.rooms) <= rooms {
		return
	}
	for id, b := range r.rooms {
		if _, ok := w.Room(id); !ok {
			b.Release()
			delete(r.rooms, id)
			delete(r.warned, id)
			Logger().Debug("released room buffer", slog.String("room", id.String()))
		}
	}
}
