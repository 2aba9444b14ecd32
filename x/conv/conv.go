// Package conv formats integers without fmt or strconv, appending to a
// caller-owned buffer.
package conv

// AppendInt appends the base-10 form of n.
func AppendInt(dst []byte, n int64) []byte {
	if n < 0 {
		dst = append(dst, '-')
		return AppendUint(dst, uint64(-n))
	}
	return AppendUint(dst, uint64(n))
}

// AppendUint appends the base-10 form of n.
func AppendUint(dst []byte, n uint64) []byte {
	var tmp [20]byte
	i := len(tmp)
	for {
		i--
		tmp[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return append(dst, tmp[i:]...)
}

// AppendFixed appends n scaled down by 10^places, e.g. (231, 1) -> "23.1"
// and (-5, 1) -> "-0.5".
func AppendFixed(dst []byte, n int64, places int) []byte {
	if places <= 0 {
		return AppendInt(dst, n)
	}
	var u uint64
	if n < 0 {
		dst = append(dst, '-')
		u = uint64(-n)
	} else {
		u = uint64(n)
	}
	div := uint64(1)
	for i := 0; i < places; i++ {
		div *= 10
	}
	dst = AppendUint(dst, u/div)
	dst = append(dst, '.')
	frac := u % div
	for div /= 10; div > 0; div /= 10 {
		dst = append(dst, byte('0'+frac/div%10))
	}
	return dst
}

// AppendHex appends each byte of b as two uppercase hex digits, separated
// by sep when sep is non-zero.
func AppendHex(dst []byte, b []byte, sep byte) []byte {
	const hexd = "0123456789ABCDEF"
	for i, c := range b {
		if i > 0 && sep != 0 {
			dst = append(dst, sep)
		}
		dst = append(dst, hexd[c>>4], hexd[c&0xF])
	}
	return dst
}
