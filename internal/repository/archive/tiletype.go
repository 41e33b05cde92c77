package archive

// TileTypeInfo maps an archive tile-type code onto HTTP semantics.
type TileTypeInfo struct {
	Extension string
	MimeType  string
}

var tileTypes = map[uint8]TileTypeInfo{
	TileTypeMVT:  {Extension: "mvt", MimeType: "application/x-protobuf"},
	TileTypePNG:  {Extension: "png", MimeType: "image/png"},
	TileTypeJPEG: {Extension: "jpg", MimeType: "image/jpeg"},
	TileTypeWebP: {Extension: "webp", MimeType: "image/webp"},
	TileTypeAVIF: {Extension: "avif", MimeType: "image/avif"},
}

// TileTypeOf returns the extension/MIME pair for a tile-type code. The
// second return is false for codes this server cannot map.
func TileTypeOf(code uint8) (TileTypeInfo, bool) {
	info, ok := tileTypes[code]
	return info, ok
}
