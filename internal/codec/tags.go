package codec

import (
	"errors"
	"io"

	"github.com/dhowden/tag"
)

// Info is the display metadata of a track.
type Info struct {
	Title  string
	Artist string
	Album  string
}

// ReadInfo reads embedded tags from r and rewinds it. Files without tags
// return an empty Info and no error.
func ReadInfo(r io.ReadSeeker) (Info, error) {
	m, err := tag.ReadFrom(r)
	if _, serr := r.Seek(0, io.SeekStart); serr != nil {
		return Info{}, serr
	}
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return Info{}, nil
		}
		return Info{}, err
	}
	return Info{Title: m.Title(), Artist: m.Artist(), Album: m.Album()}, nil
}

// SkipID3v2 positions r past an ID3v2 tag at the start of the file, or back
// at offset zero when there is none. It returns the new offset.
func SkipID3v2(r io.ReadSeeker) (int64, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	var hdr [10]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return r.Seek(0, io.SeekStart)
		}
		return 0, err
	}
	if string(hdr[:3]) != "ID3" || hdr[6]|hdr[7]|hdr[8]|hdr[9] >= 0x80 {
		return r.Seek(0, io.SeekStart)
	}
	size := int64(hdr[6])<<21 | int64(hdr[7])<<14 | int64(hdr[8])<<7 | int64(hdr[9])
	size += 10
	if hdr[5]&0x10 != 0 {
		size += 10
	}
	return r.Seek(size, io.SeekStart)
}
