package pmtiles

// ZxyToID maps a tile coordinate to its archive tile ID: the cumulative
// tile count of all lower zooms plus the coordinate's position on the
// zoom level's Hilbert curve.
func ZxyToID(z uint8, x, y uint32) uint64 {
	acc := uint64(0)
	for t := uint8(0); t < z; t++ {
		acc += (1 << t) * (1 << t)
	}

	n := uint64(1) << z
	rx, ry, d := uint64(0), uint64(0), uint64(0)
	tx, ty := uint64(x), uint64(y)
	for s := n / 2; s > 0; s /= 2 {
		if tx&s > 0 {
			rx = 1
		} else {
			rx = 0
		}
		if ty&s > 0 {
			ry = 1
		} else {
			ry = 0
		}
		d += s * s * ((3 * rx) ^ ry)
		rotate(s, &tx, &ty, rx, ry)
	}

	return acc + d
}

func rotate(n uint64, x, y *uint64, rx, ry uint64) {
	if ry == 0 {
		if rx == 1 {
			*x = n - 1 - *x
			*y = n - 1 - *y
		}
		*x, *y = *y, *x
	}
}
