// Package codec selects and drives the decode/output collaborator for a
// track. Decoding itself is delegated to gopxl/beep.
package codec

import (
	"path"
	"strings"
)

// Kind is the codec family of a track, resolved once from its extension.
type Kind int

const (
	Unknown Kind = iota
	MP3
	WAV
	FLAC
)

var kindByExt = map[string]Kind{
	".mp3":  MP3,
	".wav":  WAV,
	".flac": FLAC,
}

// KindOf classifies p by extension, case-insensitively.
func KindOf(p string) Kind {
	return kindByExt[strings.ToLower(path.Ext(p))]
}

func (k Kind) String() string {
	switch k {
	case MP3:
		return "mp3"
	case WAV:
		return "wav"
	case FLAC:
		return "flac"
	default:
		return "unknown"
	}
}

// Extensions lists the supported file extensions.
func Extensions() []string {
	return []string{".mp3", ".wav", ".flac"}
}
