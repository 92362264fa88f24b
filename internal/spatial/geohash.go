package spatial

const geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// MarkerCellPrecision gives cells of roughly 1.2 km x 0.6 km, enough to
// group cameras at one junction on the map
const MarkerCellPrecision = 6

// Geohash encodes a position as a geohash of 1 to 12 characters.
// Neighbouring cameras share a prefix, which map clients use for clustering.
func Geohash(lat, lon float64, precision int) string {
	if precision < 1 {
		precision = 1
	}
	if precision > 12 {
		precision = 12
	}

	latLo, latHi := -90.0, 90.0
	lonLo, lonHi := -180.0, 180.0

	out := make([]byte, 0, precision)
	even := true
	ch, nbits := 0, 0
	for len(out) < precision {
		ch <<= 1
		if even {
			if mid := (lonLo + lonHi) / 2; lon > mid {
				ch |= 1
				lonLo = mid
			} else {
				lonHi = mid
			}
		} else {
			if mid := (latLo + latHi) / 2; lat > mid {
				ch |= 1
				latLo = mid
			} else {
				latHi = mid
			}
		}
		even = !even

		if nbits++; nbits == 5 {
			out = append(out, geohashAlphabet[ch])
			ch, nbits = 0, 0
		}
	}
	return string(out)
}
