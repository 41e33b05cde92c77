package pmtiles

import (
	"encoding/binary"
	"fmt"
)

const (
	headerSize = 127
	magic      = "PMTiles"
	version    = 3
)

// headerV3 is the full fixed-size header at the start of every archive.
type headerV3 struct {
	RootOffset          uint64
	RootLength          uint64
	MetadataOffset      uint64
	MetadataLength      uint64
	LeafDirectoryOffset uint64
	LeafDirectoryLength uint64
	TileDataOffset      uint64
	TileDataLength      uint64
	AddressedTilesCount uint64
	TileEntriesCount    uint64
	TileContentsCount   uint64
	Clustered           bool
	InternalCompression uint8
	TileCompression     uint8
	TileType            uint8
	MinZoom             uint8
	MaxZoom             uint8
	MinLonE7            int32
	MinLatE7            int32
	MaxLonE7            int32
	MaxLatE7            int32
	CenterZoom          uint8
	CenterLonE7         int32
	CenterLatE7         int32
}

func parseHeader(data []byte) (headerV3, error) {
	var h headerV3

	if len(data) != headerSize {
		return h, fmt.Errorf("header must be %d bytes, got %d", headerSize, len(data))
	}
	if string(data[0:7]) != magic {
		return h, fmt.Errorf("invalid magic number")
	}
	if data[7] != version {
		return h, fmt.Errorf("unsupported archive version %d", data[7])
	}

	h.RootOffset = binary.LittleEndian.Uint64(data[8:16])
	h.RootLength = binary.LittleEndian.Uint64(data[16:24])
	h.MetadataOffset = binary.LittleEndian.Uint64(data[24:32])
	h.MetadataLength = binary.LittleEndian.Uint64(data[32:40])
	h.LeafDirectoryOffset = binary.LittleEndian.Uint64(data[40:48])
	h.LeafDirectoryLength = binary.LittleEndian.Uint64(data[48:56])
	h.TileDataOffset = binary.LittleEndian.Uint64(data[56:64])
	h.TileDataLength = binary.LittleEndian.Uint64(data[64:72])
	h.AddressedTilesCount = binary.LittleEndian.Uint64(data[72:80])
	h.TileEntriesCount = binary.LittleEndian.Uint64(data[80:88])
	h.TileContentsCount = binary.LittleEndian.Uint64(data[88:96])
	h.Clustered = data[96] == 1
	h.InternalCompression = data[97]
	h.TileCompression = data[98]
	h.TileType = data[99]
	h.MinZoom = data[100]
	h.MaxZoom = data[101]
	h.MinLonE7 = int32(binary.LittleEndian.Uint32(data[102:106]))
	h.MinLatE7 = int32(binary.LittleEndian.Uint32(data[106:110]))
	h.MaxLonE7 = int32(binary.LittleEndian.Uint32(data[110:114]))
	h.MaxLatE7 = int32(binary.LittleEndian.Uint32(data[114:118]))
	h.CenterZoom = data[118]
	h.CenterLonE7 = int32(binary.LittleEndian.Uint32(data[119:123]))
	h.CenterLatE7 = int32(binary.LittleEndian.Uint32(data[123:127]))

	return h, nil
}
