package allocator

// alphabet is the base62 character set. Digits come first, so '0' is the
// zero character used for left padding.
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// encodeBase62 converts a non-negative integer to its base62 representation.
func encodeBase62(n int64) string {
	if n == 0 {
		return string(alphabet[0])
	}

	// 64-bit values need at most 11 base62 digits.
	var buf [11]byte

	i := len(buf)
	for n > 0 {
		i--
		buf[i] = alphabet[n%62]
		n /= 62
	}

	return string(buf[i:])
}
