package service

import "github.com/mixgrove/booth-service/pkg/errors"

var (
	ErrForbidden     = errors.Forbidden("you don't have permission to do this")
	ErrAlreadyQueued = errors.Conflict("user is already in the waitlist")
	ErrLocked        = errors.Forbidden("the waitlist is locked")
	ErrDJQueued      = errors.Conflict("the current DJ can't join the waitlist")

	ErrBoothEmpty = errors.Conflict("nobody is in the booth")
	ErrStaleVote  = errors.Conflict("the booth has moved on, vote not counted")

	ErrOwnSession       = errors.Forbidden("you can't grab your own song")
	ErrNotPlaylistOwner = errors.Forbidden("you are not allowed to edit playlists of other users")
)
