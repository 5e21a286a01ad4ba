package engine

import (
	"errors"

	"github.com/stake-plus/govmeet/src/meeting/ordered"
	"github.com/stake-plus/govmeet/src/meeting/store"
)

// Errors returned by the engine. They are wrapped with the entity and
// identifier involved, so match them with errors.Is.
var (
	ErrNoCurrentMeeting          = errors.New("no current meeting")
	ErrNoActiveMeeting           = ErrNoCurrentMeeting
	ErrNoCurrentMotion           = errors.New("no current motion")
	ErrNotFound                  = store.ErrNotFound
	ErrEmptyCollection           = ordered.ErrEmptyCollection
	ErrNoMoreItems               = ordered.ErrNoMoreItems
	ErrAlreadyDecided            = errors.New("motion already decided")
	ErrCannotDeleteCarriedMotion = errors.New("motion has carried and cannot be deleted")
	ErrInvalidArgument           = errors.New("invalid argument")
	ErrStoreUnavailable          = store.ErrUnavailable
	ErrStorageInvariant          = store.ErrInvariant
)

// IsInternal reports whether err points at the storage layer rather than at
// the request.
func IsInternal(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrStorageInvariant)
}
