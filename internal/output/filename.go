package output

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"livelox_dl/internal/geo"
)

// Extension is appended to every output file.
const Extension = ".jpeg"

const fallbackMapName = "map"

// maxFilenameBytes keeps names, and the temporary names derived from them
// while writing, under the 255 byte limit of common filesystems.
const maxFilenameBytes = 200

// Filename names the rendered map after the map and the four corners of its
// bounds in TopLeft, TopRight, BottomRight, BottomLeft order:
//
//	<name>_<TL.lat>_<TL.lon>_<TR.lat>_<TR.lon>_<BR.lat>_<BR.lon>_<BL.lat>_<BL.lon>_.jpeg
//
// The result never contains a path separator, a backslash or a double quote.
//
// Long map names are cut on a character boundary so the whole name stays
// within maxFilenameBytes.
func Filename(mapName string, bounds geo.Quad) string {
	var suffix strings.Builder
	suffix.WriteByte('_')
	for _, corner := range bounds {
		suffix.WriteString(formatCoord(corner.Lat))
		suffix.WriteByte('_')
		suffix.WriteString(formatCoord(corner.Lon))
		suffix.WriteByte('_')
	}
	suffix.WriteString(Extension)

	name := truncateBytes(sanitize(mapName), maxFilenameBytes-suffix.Len())
	if name == "" {
		name = fallbackMapName
	}
	return name + suffix.String()
}

// truncateBytes returns the longest prefix of s that fits in limit bytes
// without splitting a character.
func truncateBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	if limit <= 0 {
		return ""
	}
	end := 0
	for i, r := range s {
		if i+utf8.RuneLen(r) > limit {
			break
		}
		end = i + utf8.RuneLen(r)
	}
	return s[:end]
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// sanitize drops double quotes and replaces characters that are unsafe in
// file names on common filesystems with underscores.
func sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r == '"':
			continue
		case strings.ContainsRune(`\/:*?<>|`, r), unicode.IsControl(r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
