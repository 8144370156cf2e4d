// Package collation provides named comparison strategies with SQL ordering
// semantics: NULL sorts below numbers, numbers sort below strings, and two
// numeric-looking values always compare numerically regardless of the text
// strategy in use.
//
// Four collator families are available: "binary" (bytewise, the default),
// "nocase" (ASCII case-insensitive), "rtrim" (trailing whitespace ignored)
// and locale collators named by BCP 47 tag (full Unicode rules).
//
// Example usage:
//
//	c, err := collation.Get("nocase")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c.Compare("alice", "Bob") // < 0
//	c.Equals("ABC", "abc")    // true
package collation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Canonical collator names. Locale collators use the canonical BCP 47 tag
// as their name instead.
const (
	NameBinary = "binary"
	NameNoCase = "nocase"
	NameRTrim  = "rtrim"
)

// Collator compares arbitrary SQL values under a named strategy.
//
// Compare returns a negative number, zero, or a positive number. Equals is
// always consistent with Compare returning zero.
type Collator interface {
	// Name returns the canonical identifier for this collator. Two
	// collators with equal names are interchangeable.
	Name() string

	// Compare orders two SQL values: NULL < numbers < strings, with
	// numeric-looking values compared numerically and strings compared
	// under the collator's text strategy.
	Compare(a, b interface{}) int

	// Equals reports whether the two values compare equal.
	Equals(a, b interface{}) bool
}

type collator struct {
	name string
	text func(a, b string) int
}

func (c *collator) Name() string { return c.name }

func (c *collator) Compare(a, b interface{}) int {
	a, b = normalize(a), normalize(b)

	na, aNum := asNumber(a)
	nb, bNum := asNumber(b)
	if aNum && bNum {
		return compareNumbers(na, nb)
	}

	ra, rb := rank(a, aNum), rank(b, bNum)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	if ra == rankNull {
		return 0
	}
	return c.text(asText(a), asText(b))
}

func (c *collator) Equals(a, b interface{}) bool {
	// Identical strings are equal under every strategy.
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok && sa == sb {
			return true
		}
	}
	return c.Compare(a, b) == 0
}

var (
	binaryCollator = &collator{name: NameBinary, text: strings.Compare}
	noCaseCollator = &collator{name: NameNoCase, text: compareFoldASCII}
	rtrimCollator  = &collator{name: NameRTrim, text: compareRTrim}
)

// Binary returns the bytewise, case-sensitive collator. It is the default
// everywhere a collation is optional.
func Binary() Collator { return binaryCollator }

// NoCase returns the ASCII case-insensitive collator.
func NoCase() Collator { return noCaseCollator }

// RTrim returns the collator that ignores trailing whitespace.
func RTrim() Collator { return rtrimCollator }

// Locale returns a Unicode collator for the given BCP 47 tag. The tag is
// canonicalized, so deprecated codes resolve to the same collator as their
// replacements ("iw" and "he" name the same collator).
func Locale(code string) (Collator, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", code, err)
	}
	uc := collate.New(tag)
	return &collator{name: tag.String(), text: uc.CompareString}, nil
}

// Get resolves a collator by name: the three built-in names (matched
// case-insensitively), the empty string (binary), or a locale tag.
func Get(name string) (Collator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameBinary:
		return Binary(), nil
	case NameNoCase:
		return NoCase(), nil
	case NameRTrim:
		return RTrim(), nil
	default:
		return Locale(name)
	}
}

// Default returns the collator used when none is configured.
func Default() Collator { return binaryCollator }

// SQL type ranks. Numbers and numeric-looking strings share a rank.
const (
	rankNull = iota
	rankNumber
	rankText
)

func rank(v interface{}, isNumber bool) int {
	switch {
	case v == nil:
		return rankNull
	case isNumber:
		return rankNumber
	default:
		return rankText
	}
}

// number carries one operand of a numeric comparison. Integers keep full
// int64 precision until a float forces widening.
type number struct {
	i     int64
	f     float64
	isInt bool
}

func (n number) float() float64 {
	if n.isInt {
		return float64(n.i)
	}
	return n.f
}

func compareNumbers(a, b number) int {
	if a.isInt && b.isInt {
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		default:
			return 0
		}
	}
	af, bf := a.float(), b.float()
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	default:
		return 0
	}
}

// asNumber reports whether v is numeric-looking: a native numeric type, a
// bool, or a string that fully parses as a number. Numeric strings parse
// as integers when they carry no decimal point or exponent.
func asNumber(v interface{}) (number, bool) {
	switch n := v.(type) {
	case nil:
		return number{}, false
	case bool:
		if n {
			return number{i: 1, isInt: true}, true
		}
		return number{i: 0, isInt: true}, true
	case int:
		return number{i: int64(n), isInt: true}, true
	case int8:
		return number{i: int64(n), isInt: true}, true
	case int16:
		return number{i: int64(n), isInt: true}, true
	case int32:
		return number{i: int64(n), isInt: true}, true
	case int64:
		return number{i: n, isInt: true}, true
	case uint:
		return number{i: int64(n), isInt: true}, true
	case uint8:
		return number{i: int64(n), isInt: true}, true
	case uint16:
		return number{i: int64(n), isInt: true}, true
	case uint32:
		return number{i: int64(n), isInt: true}, true
	case uint64:
		if n > 1<<63-1 {
			return number{f: float64(n)}, true
		}
		return number{i: int64(n), isInt: true}, true
	case float32:
		return number{f: float64(n)}, true
	case float64:
		return number{f: n}, true
	case string:
		return parseNumber(n)
	default:
		return number{}, false
	}
}

func parseNumber(s string) (number, bool) {
	if s == "" {
		return number{}, false
	}
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return number{i: i, isInt: true}, true
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return number{f: f}, true
	}
	return number{}, false
}

// normalize folds driver-level representations into the value domain the
// comparison algorithm understands.
func normalize(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func asText(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func compareFoldASCII(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ca, cb := lowerASCII(a[i]), lowerASCII(b[i])
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func lowerASCII(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func compareRTrim(a, b string) int {
	return strings.Compare(
		strings.TrimRightFunc(a, unicode.IsSpace),
		strings.TrimRightFunc(b, unicode.IsSpace),
	)
}
