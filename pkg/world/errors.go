package world

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrPortalNotFound = errors.New("portal not found")
	ErrCameraNotFound = errors.New("camera not found")

	// ErrInvalidWorld wraps every invariant violation reported by Validate.
	ErrInvalidWorld = errors.New("invalid world")
)
