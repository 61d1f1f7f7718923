package fault

import "errors"

var (
	ErrStorageUnavailable = errors.New("pocketshuffle: storage unavailable")
	ErrCatalogEmpty       = errors.New("pocketshuffle: catalog empty")
	ErrBookmarkCorrupt    = errors.New("pocketshuffle: bookmark corrupt")
	ErrBookmarkStale      = errors.New("pocketshuffle: bookmark stale")
	ErrTrackOpenFailed    = errors.New("pocketshuffle: track open failed")
	ErrDecode             = errors.New("pocketshuffle: decode error")
	ErrShuffleStalled     = errors.New("pocketshuffle: shuffle retry limit exceeded")
)

func IsStorageUnavailable(err error) bool { return errors.Is(err, ErrStorageUnavailable) }
func IsCatalogEmpty(err error) bool       { return errors.Is(err, ErrCatalogEmpty) }
func IsTrackOpenFailed(err error) bool    { return errors.Is(err, ErrTrackOpenFailed) }
func IsDecode(err error) bool             { return errors.Is(err, ErrDecode) }

// IsBookmarkInvalid reports whether err means the bookmark must be treated as absent.
func IsBookmarkInvalid(err error) bool {
	return errors.Is(err, ErrBookmarkCorrupt) || errors.Is(err, ErrBookmarkStale)
}

// IsFatal reports whether err halts forward progress.
func IsFatal(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, ErrCatalogEmpty) ||
		errors.Is(err, ErrShuffleStalled)
}

// Retryable reports whether a halted runtime should periodically try to boot
// again. A session halts on open failures only after every track failed in a
// row, which a card swap or remount can cure.
func Retryable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrTrackOpenFailed)
}

// IsRecoverable reports whether err only costs the current track or bookmark.
func IsRecoverable(err error) bool { return err != nil && !IsFatal(err) }
