//go:build tinygo

package strconvx

// Minimal, allocation-aware formatting helpers with strconv-compatible
// signatures. FormatFloat is basic and not IEEE-perfect; it carries the
// display's fixed two-decimal rendering and not much more.

func Itoa(i int) string { return FormatInt(int64(i), 10) }

func FormatInt(i int64, base int) string {
	if base < 2 || base > 36 {
		base = 10
	}
	neg := i < 0
	var u uint64
	if neg {
		u = uint64(-i)
	} else {
		u = uint64(i)
	}
	s := formatUint(u, base)
	if neg {
		return "-" + s
	}
	return s
}

func FormatUint(u uint64, base int) string {
	if base < 2 || base > 36 {
		base = 10
	}
	return formatUint(u, base)
}

func formatUint(u uint64, base int) string {
	if u == 0 {
		return "0"
	}
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	var buf [64]byte
	i := len(buf)
	b := uint64(base)
	for u > 0 {
		i--
		buf[i] = digits[u%b]
		u /= b
	}
	return string(buf[i:])
}

// FormatFloat renders fixed decimal notation. The fmt and bitSize
// arguments exist for signature parity; only 'f'-style output is
// produced. No infinity/NaN spelling: callers gate those out.
func FormatFloat(f float64, _ byte, prec, _ int) string {
	if prec < 0 {
		prec = 6
	}
	neg := false
	if f < 0 {
		neg = true
		f = -f
	}
	intp := uint64(f)
	frac := f - float64(intp)

	ints := formatUint(intp, 10)
	if prec == 0 {
		if neg {
			return "-" + ints
		}
		return ints
	}
	pow := 1.0
	for i := 0; i < prec; i++ {
		pow *= 10
	}
	fracN := uint64(frac*pow + 0.5) // simple rounding
	if fracN >= uint64(pow) {
		// Rounding carried into the integer part.
		fracN -= uint64(pow)
		ints = formatUint(intp+1, 10)
	}
	fs := formatUint(fracN, 10)
	for len(fs) < prec {
		fs = "0" + fs
	}
	out := ints + "." + fs
	if neg {
		return "-" + out
	}
	return out
}
