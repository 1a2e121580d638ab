package utils

import "github.com/cespare/xxhash/v2"

// U64 hashes s with xxhash.
func U64(s string) uint64 {
	return xxhash.Sum64String(s)
}

// Mix64 combines two hashes into one. Order matters.
func Mix64(a, b uint64) uint64 {
	var buf [16]byte
	putU64(buf[:8], a)
	putU64(buf[8:], b)
	return xxhash.Sum64(buf[:])
}

func putU64(b []byte, u uint64) {
	b[0], b[1], b[2], b[3] = byte(u>>56), byte(u>>48), byte(u>>40), byte(u>>32)
	b[4], b[5], b[6], b[7] = byte(u>>24), byte(u>>16), byte(u>>8), byte(u)
}
