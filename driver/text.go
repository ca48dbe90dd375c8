package driver

// EncodeText stores s into dst as a NUL-terminated wide string.
// Text that does not fit is truncated; the rest of dst is zeroed.
func EncodeText(dst []WChar, s string) {
	clear(dst)
	if len(dst) == 0 {
		return
	}
	units := encodeWide(s)
	n := min(len(units), len(dst)-1)
	copy(dst, units[:n])
}

// DecodeText converts a NUL-terminated wide string to a Go string.
func DecodeText(src []WChar) string {
	n := 0
	for n < len(src) && src[n] != 0 {
		n++
	}
	if n == 0 {
		return ""
	}
	buf := make([]byte, n*wcharSize)
	for i := 0; i < n; i++ {
		putWChar(buf[i*wcharSize:], src[i])
	}
	out, err := wideEncoding.NewDecoder().Bytes(buf)
	if err != nil {
		return ""
	}
	return string(out)
}

// WideString returns s as a NUL-terminated wide string suitable
// for passing to a procedure that takes a wchar_t pointer.
func WideString(s string) []WChar {
	units := encodeWide(s)
	return append(units, 0)
}

func encodeWide(s string) []WChar {
	if s == "" {
		return nil
	}
	buf, err := wideEncoding.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil
	}
	units := make([]WChar, len(buf)/wcharSize)
	for i := range units {
		units[i] = wcharAt(buf[i*wcharSize:])
	}
	return units
}
