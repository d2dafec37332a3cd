package world

import "github.com/google/uuid"

// RoomID identifies a Room. IDs are random 128-bit values generated once
// when the entity is created and never reused.
type RoomID uuid.UUID

// PortalID identifies a Portal.
type PortalID uuid.UUID

// CameraID identifies a Camera.
type CameraID uuid.UUID

// NewRoomID returns a fresh random RoomID.
func NewRoomID() RoomID { return RoomID(uuid.New()) }

// NewPortalID returns a fresh random PortalID.
func NewPortalID() PortalID { return PortalID(uuid.New()) }

// NewCameraID returns a fresh random CameraID.
func NewCameraID() CameraID { return CameraID(uuid.New()) }

func (id RoomID) String() string   { return uuid.UUID(id).String() }
func (id PortalID) String() string { return uuid.UUID(id).String() }
func (id CameraID) String() string { return uuid.UUID(id).String() }

// IsZero reports whether id is the unset value.
func (id RoomID) IsZero() bool   { return id == RoomID{} }
func (id PortalID) IsZero() bool { return id == PortalID{} }
func (id CameraID) IsZero() bool { return id == CameraID{} }

func (id RoomID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id PortalID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id CameraID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *RoomID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *PortalID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *CameraID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
