package material

import (
	"fmt"
	"strings"
)

// BishopParity is the even/odd square-color class of a side's bishop(s),
// used to split certain tables into parity-homogeneous subtables.
type BishopParity uint8

const (
	ParityNone BishopParity = iota
	ParityEven
	ParityOdd
)

func (p BishopParity) String() string {
	switch p {
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	default:
		return "none"
	}
}

// whiteToken/blackToken return the filename suffix token (without the
// leading underscore) for a non-None parity; None has no token.
func (p BishopParity) whiteToken() string {
	switch p {
	case ParityEven:
		return "wbe"
	case ParityOdd:
		return "wbo"
	default:
		return ""
	}
}

func (p BishopParity) blackToken() string {
	switch p {
	case ParityEven:
		return "bbe"
	case ParityOdd:
		return "bbo"
	default:
		return ""
	}
}

// stripWhiteBishopToken removes a trailing "_wbe"/"_wbo" suffix.
func stripWhiteBishopToken(name string) (string, BishopParity) {
	if rest, ok := strings.CutSuffix(name, "_wbo"); ok {
		return rest, ParityOdd
	}
	if rest, ok := strings.CutSuffix(name, "_wbe"); ok {
		return rest, ParityEven
	}
	return name, ParityNone
}

// stripBlackBishopToken removes a trailing "_bbe"/"_bbo" suffix.
func stripBlackBishopToken(name string) (string, BishopParity) {
	if rest, ok := strings.CutSuffix(name, "_bbo"); ok {
		return rest, ParityOdd
	}
	if rest, ok := strings.CutSuffix(name, "_bbe"); ok {
		return rest, ParityEven
	}
	return name, ParityNone
}

// ParseWhiteBishopToken and ParseBlackBishopToken parse an exact token
// (without underscore); the empty string parses as ParityNone.
func ParseWhiteBishopToken(tok string) (BishopParity, error) {
	switch tok {
	case "":
		return ParityNone, nil
	case "wbe":
		return ParityEven, nil
	case "wbo":
		return ParityOdd, nil
	default:
		return 0, fmt.Errorf("material: unrecognized white bishop-parity token %q", tok)
	}
}

func ParseBlackBishopToken(tok string) (BishopParity, error) {
	switch tok {
	case "":
		return ParityNone, nil
	case "bbe":
		return ParityEven, nil
	case "bbo":
		return ParityOdd, nil
	default:
		return 0, fmt.Errorf("material: unrecognized black bishop-parity token %q", tok)
	}
}
