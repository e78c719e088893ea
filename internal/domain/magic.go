package domain

// Literal values common enough that the magic-number lint stays quiet about
// them.

var whitelistedInts = map[int64]bool{
	-1: true, 0: true, 1: true, 2: true, 3: true, 4: true, 5: true,
	6: true, 7: true, 8: true, 9: true, 10: true, 100: true,
}

var whitelistedFloats = map[float64]bool{
	-1.0: true, 0.0: true, 0.1: true, 1.0: true, 1.5: true, 2.0: true,
	3.0: true, 4.0: true, 5.0: true, 6.0: true, 7.0: true, 8.0: true,
	9.0: true, 10.0: true, 100.0: true,
}

func whitelistedInt(v int64) bool {
	return whitelistedInts[v]
}

func whitelistedFloat(v float64) bool {
	return whitelistedFloats[v]
}
