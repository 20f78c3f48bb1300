package rarc

// Hash computes the 16-bit name hash stored on nodes and entries. Equal
// hashes only mark candidates; lookups still compare the full name.
func Hash(name string) uint16 {
	var h uint16
	for i := 0; i < len(name); i++ {
		h = h*3 + uint16(name[i])
	}
	return h
}
