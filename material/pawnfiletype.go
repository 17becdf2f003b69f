package material

import (
	"fmt"
	"sort"
	"strings"
)

// PawnFileType classifies pairs of opposing/blocked pawn files, selecting
// which Mb/HighDtc subtable a position with unbalanced pawn files must
// probe. Free means "no pawn-file subtable applies".
type PawnFileType uint8

const (
	Free PawnFileType = iota
	Bp11
	Op11
	Op21
	Op12
	Op22
	Dp22
	Op31
	Op13
	Op14
	Op41
	Op32
	Op23
	Op33
	Op42
	Op24
)

type pawnTokenEntry struct {
	token string
	kind  PawnFileType
}

// pawnTokens is ordered longest-token-first so suffix matching during
// parsing can never be fooled by a shorter token that happens to also be a
// suffix of a longer one.
var pawnTokens = func() []pawnTokenEntry {
	entries := []pawnTokenEntry{
		{"bp1", Bp11},
		{"op1", Op11},
		{"op21", Op21},
		{"op12", Op12},
		{"op22", Op22},
		{"dp2", Dp22},
		{"op31", Op31},
		{"op13", Op13},
		{"op14", Op14},
		{"op41", Op41},
		{"op32", Op32},
		{"op23", Op23},
		{"op33", Op33},
		{"op42", Op42},
		{"op24", Op24},
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return len(entries[i].token) > len(entries[j].token)
	})
	return entries
}()

// Token returns the canonical filename token for t, or "" for Free.
func (t PawnFileType) Token() string {
	for _, e := range pawnTokens {
		if e.kind == t {
			return e.token
		}
	}
	return ""
}

func (t PawnFileType) String() string {
	if t == Free {
		return "free"
	}
	return t.Token()
}

// pawnFileTypeFromToken looks up the variant for an exact (no underscore)
// token, as produced by Token.
func pawnFileTypeFromToken(tok string) (PawnFileType, bool) {
	for _, e := range pawnTokens {
		if e.token == tok {
			return e.kind, true
		}
	}
	return 0, false
}

// stripPawnToken removes a trailing "_<tok>" pawn-file-type suffix from
// name, trying the longest tokens first. Returns Free and the unmodified
// string if no token matches.
func stripPawnToken(name string) (string, PawnFileType) {
	for _, e := range pawnTokens {
		suffix := "_" + e.token
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix), e.kind
		}
	}
	return name, Free
}

// ParsePawnFileType parses an exact token (without the leading
// underscore); the empty string parses as Free.
func ParsePawnFileType(tok string) (PawnFileType, error) {
	if tok == "" {
		return Free, nil
	}
	if t, ok := pawnFileTypeFromToken(tok); ok {
		return t, nil
	}
	return 0, fmt.Errorf("material: unrecognized pawn-file-type token %q", tok)
}
