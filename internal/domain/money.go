package domain

import "strconv"

// Money is an amount in minor currency units. The currency has no fractional
// subunits, so all arithmetic stays in integer space; binary floating point is
// never used for amounts.
type Money int64

// ApplyPercent returns pct percent of m, rounded half-up at minor-unit
// granularity. Callers must apply it at most once per computed discount or
// tax amount so rounding never compounds.
func (m Money) ApplyPercent(pct int64) Money {
	return Money((int64(m)*pct + 50) / 100)
}

// Format renders the amount with dot thousand separators, e.g. 50000 -> "50.000".
func (m Money) Format() string {
	n := int64(m)
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return sign + s
	}

	var out []byte
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, '.')
		}
		out = append(out, s[i:i+3]...)
	}
	return sign + string(out)
}
