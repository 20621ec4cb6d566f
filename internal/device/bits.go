package device

// Mask returns the value mask of a field of the given bit width.
func Mask(width uint) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<width - 1
}

// Insert places v into the bit window of a field. Bits of v outside the
// field width are silently discarded.
func Insert(word uint64, offset, width uint, v uint64) uint64 {
	mask := Mask(width)
	return word&^(mask<<offset) | (v&mask)<<offset
}

// Extract returns the value of the bit window of a field.
func Extract(word uint64, offset, width uint) uint64 {
	return word >> offset & Mask(width)
}
