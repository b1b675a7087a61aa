package engine

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// NumberToString implements Number::toString(x, 10).
func NumberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case f == 0:
		return "0"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f < 0:
		return "-" + NumberToString(-f)
	}

	// Shortest round-tripping digits, then the layout rules of the language.
	e := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(e, "e")
	digits := strings.Replace(mant, ".", "", 1)
	k := len(digits)
	n64, _ := strconv.Atoi(exp)
	n := n64 + 1

	switch {
	case k <= n && n <= 21:
		return digits + strings.Repeat("0", n-k)
	case 0 < n && n <= 21:
		return digits[:n] + "." + digits[n:]
	case -6 < n && n <= 0:
		return "0." + strings.Repeat("0", -n) + digits
	}
	sign := "+"
	if n-1 < 0 {
		sign = "-"
	}
	expPart := "e" + sign + strconv.Itoa(abs(n-1))
	if k == 1 {
		return digits + expPart
	}
	return digits[:1] + "." + digits[1:] + expPart
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

const radixDigits = "0123456789abcdefghijklmnopqrstuvwxyz"

// NumberToStringRadix renders f in radix 2..36 the way Number.prototype.toString
// does for non-decimal radices.
func NumberToStringRadix(f float64, radix int) string {
	if radix == 10 || math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
		return NumberToString(f)
	}
	negative := f < 0
	if negative {
		f = -f
	}
	integer := math.Floor(f)
	fraction := f - integer

	// Precision window: half the distance to the next representable double.
	delta := 0.5 * (math.Nextafter(f, math.Inf(1)) - f)
	delta = math.Max(math.Nextafter(0, 1), delta)

	var frac []byte
	if fraction >= delta {
		for {
			fraction *= float64(radix)
			delta *= float64(radix)
			digit := int(fraction)
			frac = append(frac, radixDigits[digit])
			fraction -= float64(digit)
			if fraction > 0.5 || (fraction == 0.5 && digit&1 == 1) {
				if fraction+delta > 1 {
					// Round up, propagating carries into the integer part.
					for {
						i := len(frac) - 1
						if i < 0 {
							integer++
							break
						}
						d := strings.IndexByte(radixDigits, frac[i]) + 1
						if d < radix {
							frac[i] = radixDigits[d]
							break
						}
						frac = frac[:i]
					}
					break
				}
			}
			if fraction < delta {
				break
			}
		}
	}

	bi, _ := new(big.Float).SetFloat64(integer).Int(nil)
	out := bi.Text(radix)
	if len(frac) > 0 {
		out += "." + string(frac)
	}
	if negative {
		out = "-" + out
	}
	return out
}

// isStrWhiteSpace matches StrWhiteSpaceChar: WhiteSpace and LineTerminator.
func isStrWhiteSpace(r rune) bool {
	switch r {
	case '\t', '\v', '\f', ' ', '\u00a0', '\ufeff', '\n', '\r', '\u2028', '\u2029':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// TrimStrWhiteSpace strips leading and trailing StrWhiteSpaceChar runes.
func TrimStrWhiteSpace(s string) string {
	return strings.TrimFunc(s, isStrWhiteSpace)
}

// StringToNumber implements StringToNumber over the StringNumericLiteral
// grammar. Anything that does not match yields NaN.
func StringToNumber(s string) float64 {
	s = TrimStrWhiteSpace(s)
	if s == "" {
		return 0
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			return parseNonDecimal(s[2:], base)
		}
	}

	body := s
	sign := 1.0
	switch body[0] {
	case '+':
		body = body[1:]
	case '-':
		body = body[1:]
		sign = -1
	}
	if body == "Infinity" {
		return sign * math.Inf(1)
	}
	if !isDecimalLiteral(body) {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(body, 64)
	if err != nil {
		// Out-of-range literals saturate to Infinity, which ParseFloat
		// also returns alongside ErrRange.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return sign * f
		}
		return math.NaN()
	}
	return sign * f
}

func parseNonDecimal(digits string, base int) float64 {
	if digits == "" {
		return math.NaN()
	}
	for i := 0; i < len(digits); i++ {
		if digitValue(digits[i]) >= base {
			return math.NaN()
		}
	}
	b, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return math.NaN()
	}
	f, _ := new(big.Float).SetInt(b).Float64()
	return f
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	}
	return 99
}

// isDecimalLiteral matches StrUnsignedDecimalLiteral without Infinity.
func isDecimalLiteral(s string) bool {
	i, n := 0, len(s)
	intDigits := 0
	for i < n && s[i] >= '0' && s[i] <= '9' {
		i++
		intDigits++
	}
	fracDigits := 0
	if i < n && s[i] == '.' {
		i++
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
			fracDigits++
		}
	}
	if intDigits+fracDigits == 0 {
		return false
	}
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < n && (s[i] == '+' || s[i] == '-') {
			i++
		}
		expDigits := 0
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
			expDigits++
		}
		if expDigits == 0 {
			return false
		}
	}
	return i == n
}

// StringToBigInt implements StringToBigInt. ok is false for strings that are
// not a StringIntegerLiteral.
func StringToBigInt(s string) (*big.Int, bool) {
	s = TrimStrWhiteSpace(s)
	if s == "" {
		return new(big.Int), true
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			for i := 2; i < len(s); i++ {
				if digitValue(s[i]) >= base {
					return nil, false
				}
			}
			return new(big.Int).SetString(s[2:], base)
		}
	}
	body := s
	neg := false
	switch body[0] {
	case '+':
		body = body[1:]
	case '-':
		body = body[1:]
		neg = true
	}
	if body == "" {
		return nil, false
	}
	for i := 0; i < len(body); i++ {
		if body[i] < '0' || body[i] > '9' {
			return nil, false
		}
	}
	b, ok := new(big.Int).SetString(body, 10)
	if !ok {
		return nil, false
	}
	if neg {
		b.Neg(b)
	}
	return b, true
}

// IsIntegralNumber reports whether f is a finite number with no fraction.
func IsIntegralNumber(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && math.Trunc(f) == f
}

// toIntegerOrInfinity is the numeric half of ToIntegerOrInfinity.
func toIntegerOrInfinity(f float64) float64 {
	if math.IsNaN(f) || f == 0 {
		return 0
	}
	if math.IsInf(f, 0) {
		return f
	}
	return math.Trunc(f)
}

func toUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Trunc(f)
	f = math.Mod(f, 4294967296)
	if f < 0 {
		f += 4294967296
	}
	return uint32(f)
}

func toInt32(f float64) int32 {
	return int32(toUint32(f))
}

func toUint16(f float64) uint16 {
	return uint16(toUint32(f))
}

// numberExponentiate implements Number::exponentiate, which differs from
// math.Pow for |base| == 1 with infinite or NaN exponents.
func numberExponentiate(base, exponent float64) float64 {
	if math.IsNaN(exponent) {
		return math.NaN()
	}
	if (base == 1 || base == -1) && math.IsInf(exponent, 0) {
		return math.NaN()
	}
	return math.Pow(base, exponent)
}

// numberRemainder implements Number::remainder (truncating, sign of dividend).
func numberRemainder(n, d float64) float64 {
	if math.IsNaN(n) || math.IsNaN(d) || math.IsInf(n, 0) || d == 0 {
		return math.NaN()
	}
	if math.IsInf(d, 0) || n == 0 {
		return n
	}
	r := math.Mod(n, d)
	if r == 0 {
		return math.Copysign(0, n)
	}
	return r
}

// --- UTF-16 views over Go strings ---

// utf16Length is the length of s in UTF-16 code units.
func utf16Length(s string) int {
	n := 0
	for i := 0; i < len(s); {
		if s[i] < utf8.RuneSelf {
			n++
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// StringLength is the script-visible length of a string value.
func StringLength(s string) int { return utf16Length(s) }

// toUTF16 expands s into code units.
func toUTF16(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// fromUTF16 folds code units back into a Go string. Lone surrogates become
// U+FFFD since Go strings carry UTF-8.
func fromUTF16(units []uint16) string {
	return string(utf16.Decode(units))
}

// CodeUnitAt returns the UTF-16 code unit at index i, or false when i is out
// of range.
func CodeUnitAt(s string, i int) (uint16, bool) {
	if i < 0 {
		return 0, false
	}
	ascii := true
	for j := 0; j < len(s); j++ {
		if s[j] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		if i >= len(s) {
			return 0, false
		}
		return uint16(s[i]), true
	}
	units := toUTF16(s)
	if i >= len(units) {
		return 0, false
	}
	return units[i], true
}

// SubstringUTF16 slices s by code unit offsets [from, to).
func SubstringUTF16(s string, from, to int) string {
	units := toUTF16(s)
	from = max(0, min(from, len(units)))
	to = max(from, min(to, len(units)))
	return fromUTF16(units[from:to])
}

// StringToUTF16 returns the code units of a string value.
func StringToUTF16(s string) []uint16 { return toUTF16(s) }

// StringFromUTF16 builds a string value from code units.
func StringFromUTF16(units []uint16) string { return fromUTF16(units) }

// IsStrWhiteSpace reports whether r is a StrWhiteSpaceChar.
func IsStrWhiteSpace(r rune) bool { return isStrWhiteSpace(r) }

// NumberExponentiate is the exported form of Number::exponentiate.
func NumberExponentiate(base, exponent float64) float64 { return numberExponentiate(base, exponent) }
