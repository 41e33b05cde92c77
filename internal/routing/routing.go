// Package routing turns an inbound request path into a typed intent.
// Both transports (HTTP server and Lambda) normalize their events into
// the same path shape before calling Parse.
package routing

import (
	"strconv"
	"strings"
)

type Kind int

const (
	KindInvalid Kind = iota
	KindTile
	KindMetadata
)

type TileRequest struct {
	Archive string
	Z       uint8
	X       uint32
	Y       uint32
	Ext     string
}

type MetadataRequest struct {
	Archive string
}

type Intent struct {
	Kind     Kind
	Tile     TileRequest
	Metadata MetadataRequest
}

var invalid = Intent{Kind: KindInvalid}

// Parse matches the two supported grammars, tile first:
//
//	/<name>/<z>/<x>/<y>.<ext>
//	/<name>.json
//
// The archive name may itself contain slashes, so the tile form is
// anchored on the trailing three segments rather than the leading one.
func Parse(path string) Intent {
	if !strings.HasPrefix(path, "/") {
		return invalid
	}
	trimmed := path[1:]

	segments := strings.Split(trimmed, "/")
	if len(segments) >= 4 {
		if tile, ok := parseTile(segments); ok {
			return Intent{Kind: KindTile, Tile: tile}
		}
	}

	if name, ok := strings.CutSuffix(trimmed, ".json"); ok && validName(name) {
		return Intent{Kind: KindMetadata, Metadata: MetadataRequest{Archive: name}}
	}

	return invalid
}

func parseTile(segments []string) (TileRequest, bool) {
	last := segments[len(segments)-1]
	dot := strings.LastIndexByte(last, '.')
	if dot <= 0 || dot == len(last)-1 {
		return TileRequest{}, false
	}

	ext := last[dot+1:]
	if !validExt(ext) {
		return TileRequest{}, false
	}

	z, err := strconv.ParseUint(segments[len(segments)-3], 10, 8)
	if err != nil {
		return TileRequest{}, false
	}
	x, err := strconv.ParseUint(segments[len(segments)-2], 10, 32)
	if err != nil {
		return TileRequest{}, false
	}
	y, err := strconv.ParseUint(last[:dot], 10, 32)
	if err != nil {
		return TileRequest{}, false
	}

	name := strings.Join(segments[:len(segments)-3], "/")
	if !validName(name) {
		return TileRequest{}, false
	}

	return TileRequest{
		Archive: name,
		Z:       uint8(z),
		X:       uint32(x),
		Y:       uint32(y),
		Ext:     ext,
	}, true
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c == '/' || c == '!' || c == '-' || c == '_' || c == '.' ||
			c == '*' || c == '\'' || c == '(' || c == ')':
		default:
			return false
		}
	}
	return true
}

func validExt(ext string) bool {
	if ext == "" {
		return false
	}
	for i := 0; i < len(ext); i++ {
		if ext[i] < 'a' || ext[i] > 'z' {
			return false
		}
	}
	return true
}
