package material

import (
	"fmt"
	"strconv"
	"strings"
)

// KkIndex is an opaque tag identifying a king-vs-king placement
// equivalence class, as produced by the index bridge collaborator.
type KkIndex uint32

// DirectoryKey identifies one on-disk table directory: a material
// signature plus the pawn-file-type and bishop-parity subtype it holds.
//
// Invariant: if BishopWhite or BishopBlack is non-None, PawnType must be
// Free. A DirectoryKey violating this has no valid on-disk rendering.
type DirectoryKey struct {
	Material    Material
	PawnType    PawnFileType
	BishopWhite BishopParity
	BishopBlack BishopParity
}

// Validate reports whether k satisfies the pawn/bishop exclusivity
// invariant: a table is split on pawn file type or on bishop parity,
// never both.
func (k DirectoryKey) Validate() error {
	if (k.BishopWhite != ParityNone || k.BishopBlack != ParityNone) && k.PawnType != Free {
		return fmt.Errorf("material: directory key has both a pawn-file-type and a bishop-parity token")
	}
	return nil
}

// String renders the directory name: <material>[_<pawn_tok>][_wbX][_bbX]_out.
func (k DirectoryKey) String() string {
	var b strings.Builder
	b.WriteString(k.Material.String())
	if tok := k.PawnType.Token(); tok != "" {
		b.WriteByte('_')
		b.WriteString(tok)
	}
	if tok := k.BishopWhite.whiteToken(); tok != "" {
		b.WriteByte('_')
		b.WriteString(tok)
	}
	if tok := k.BishopBlack.blackToken(); tok != "" {
		b.WriteByte('_')
		b.WriteString(tok)
	}
	b.WriteString("_out")
	return b.String()
}

// ParseDirectoryKey parses a directory name produced by String.
func ParseDirectoryKey(name string) (DirectoryKey, error) {
	rest, ok := strings.CutSuffix(name, "_out")
	if !ok {
		return DirectoryKey{}, fmt.Errorf("material: directory name %q lacks _out suffix", name)
	}

	m, pawnType, bw, bb, err := parseMaterialWithTokens(rest)
	if err != nil {
		return DirectoryKey{}, err
	}
	return DirectoryKey{Material: m, PawnType: pawnType, BishopWhite: bw, BishopBlack: bb}, nil
}

// parseMaterialWithTokens parses the shared "<material>[_<pawn_tok>][_wbX][_bbX]"
// grammar used by both directory names and (per the on-disk TableKey
// format) table file names, minus any trailing _out/_<side>_<kk>.<ext>
// framing that the caller has already stripped.
func parseMaterialWithTokens(s string) (Material, PawnFileType, BishopParity, BishopParity, error) {
	s, bb := stripBlackBishopToken(s)
	s, bw := stripWhiteBishopToken(s)

	var pawnType PawnFileType
	if bw == ParityNone && bb == ParityNone {
		s, pawnType = stripPawnToken(s)
	}

	m, err := Parse(s)
	if err != nil {
		return Material{}, 0, 0, 0, err
	}
	return m, pawnType, bw, bb, nil
}

// TableKey identifies exactly one table file.
type TableKey struct {
	Material    Material
	PawnType    PawnFileType
	BishopWhite BishopParity
	BishopBlack BishopParity
	Side        Side
	KkIndex     KkIndex
	TableType   TableType
}

// DirectoryKey returns the directory components of k.
func (k TableKey) DirectoryKey() DirectoryKey {
	return DirectoryKey{
		Material:    k.Material,
		PawnType:    k.PawnType,
		BishopWhite: k.BishopWhite,
		BishopBlack: k.BishopBlack,
	}
}

// String renders the file name: <material>[_<pawn_tok>][_wbX][_bbX]_<w|b>_<kk>.<mb|hi>.
func (k TableKey) String() string {
	var b strings.Builder
	b.WriteString(k.Material.String())
	if tok := k.PawnType.Token(); tok != "" {
		b.WriteByte('_')
		b.WriteString(tok)
	}
	if tok := k.BishopWhite.whiteToken(); tok != "" {
		b.WriteByte('_')
		b.WriteString(tok)
	}
	if tok := k.BishopBlack.blackToken(); tok != "" {
		b.WriteByte('_')
		b.WriteString(tok)
	}
	b.WriteByte('_')
	b.WriteString(k.Side.Token())
	b.WriteByte('_')
	b.WriteString(strconv.FormatUint(uint64(k.KkIndex), 10))
	b.WriteString(k.TableType.Ext())
	return b.String()
}

// ParseTableKey parses a file name produced by String.
func ParseTableKey(name string) (TableKey, error) {
	var ext string
	base := name
	switch {
	case strings.HasSuffix(name, ".mb"):
		ext, base = ".mb", strings.TrimSuffix(name, ".mb")
	case strings.HasSuffix(name, ".hi"):
		ext, base = ".hi", strings.TrimSuffix(name, ".hi")
	default:
		return TableKey{}, fmt.Errorf("material: file name %q has no recognized table extension", name)
	}
	tableType, err := ParseTableTypeExt(ext)
	if err != nil {
		return TableKey{}, err
	}

	left, side, kkStr, err := splitSideInfix(base)
	if err != nil {
		return TableKey{}, fmt.Errorf("material: file name %q: %w", name, err)
	}
	kk, err := strconv.ParseUint(kkStr, 10, 32)
	if err != nil {
		return TableKey{}, fmt.Errorf("material: file name %q: invalid kk index %q: %w", name, kkStr, err)
	}

	m, pawnType, bw, bb, err := parseMaterialWithTokens(left)
	if err != nil {
		return TableKey{}, err
	}

	return TableKey{
		Material:    m,
		PawnType:    pawnType,
		BishopWhite: bw,
		BishopBlack: bb,
		Side:        side,
		KkIndex:     KkIndex(kk),
		TableType:   tableType,
	}, nil
}

// splitSideInfix splits on whichever of "_w_" or "_b_" occurs first in s.
func splitSideInfix(s string) (left string, side Side, right string, err error) {
	iw := strings.Index(s, "_w_")
	ib := strings.Index(s, "_b_")
	switch {
	case iw == -1 && ib == -1:
		return "", 0, "", fmt.Errorf("no _w_ or _b_ side infix")
	case iw != -1 && (ib == -1 || iw < ib):
		return s[:iw], White, s[iw+len("_w_"):], nil
	default:
		return s[:ib], Black, s[ib+len("_b_"):], nil
	}
}
