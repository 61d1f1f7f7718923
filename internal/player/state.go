package player

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/pocketshuffle/pocketshuffle/internal/codec"
)

// State is the orchestrator's playback state.
type State int

const (
	Idle State = iota
	Loading
	Playing
	Advancing
	// Halted means no playable track could be produced. Ticks keep running.
	Halted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Advancing:
		return "advancing"
	case Halted:
		return "halted"
	default:
		return "unknown"
	}
}

// Command is a discrete, already debounced user action.
type Command int

const (
	Next Command = iota + 1
	Previous
	VolumeUp
	VolumeDown
	FactoryReset
)

func (c Command) String() string {
	switch c {
	case Next:
		return "next"
	case Previous:
		return "previous"
	case VolumeUp:
		return "volume-up"
	case VolumeDown:
		return "volume-down"
	case FactoryReset:
		return "factory-reset"
	default:
		return "unknown"
	}
}

// ParseCommand maps a text command such as a headless stdin line to a Command.
func ParseCommand(s string) (Command, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "n", "next":
		return Next, true
	case "p", "prev", "previous":
		return Previous, true
	case "+", "up", "volume-up":
		return VolumeUp, true
	case "-", "down", "volume-down":
		return VolumeDown, true
	case "reset", "factory-reset":
		return FactoryReset, true
	default:
		return 0, false
	}
}

var commandNames = []string{"next", "previous", "volume-up", "volume-down", "factory-reset"}

// SuggestCommand returns the command name closest to an unrecognized input.
func SuggestCommand(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	matches := fuzzy.Find(s, commandNames)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Str, true
}

// Status is a point-in-time view of the orchestrator for display and logs.
type Status struct {
	State       State
	Index       int
	Total       int
	Remaining   int
	Path        string
	Kind        codec.Kind
	Offset      int64
	Title       string
	Artist      string
	Volume      int
	VolumeSteps int
	// Folder is the contiguous folder run of Index, FolderPos its position
	// in that run and FolderSize the run length. Folder is -1 when unknown.
	Folder     int
	FolderPos  int
	FolderSize int
	Failures   int
	Err        error
}
