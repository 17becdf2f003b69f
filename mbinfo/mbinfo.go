// Package mbinfo wraps the opaque combinatorial indexer that maps a
// 64-square piece placement to table coordinates. The indexer itself,
// a large precomputed function tying king-king equivalence classes,
// pawn-structure subtypes, and bishop-parity subtypes to table
// indices, is an external collaborator; this package only defines its
// input/output contract and the glue that builds its input from a
// Position.
package mbinfo

import (
	"fmt"

	"github.com/lichess-org/mbtb/material"
	"github.com/lichess-org/mbtb/position"
)

// NoIndex is the sentinel (!0u64 on the wire) meaning "not applicable"
// for any index_<variant> field.
const NoIndex = ^uint64(0)

// ParityCandidate is one entry of MbInfo's parity_index list: a
// bishop-parity pair the position also qualifies for, and the table
// index to use if a table keyed by that parity pair exists.
type ParityCandidate struct {
	BishopParity [2]material.BishopParity // [White, Black]
	Index        uint64
}

// MbInfo is the indexer's full output for one position, consumed by
// the selector to choose which table variant to probe.
type MbInfo struct {
	KkIndex       material.KkIndex
	PawnFileType  material.PawnFileType
	ParityIndex   []ParityCandidate
	PawnFileIndex PawnFileIndex
}

// PawnFileIndex holds the per-pawn-file-variant table index, one field
// per non-Free PawnFileType. A value of NoIndex means that variant
// does not apply to this position.
type PawnFileIndex struct {
	Bp11 uint64
	Op11 uint64
	Op21 uint64
	Op12 uint64
	Op22 uint64
	Dp22 uint64
	Op31 uint64
	Op13 uint64
	Op14 uint64
	Op41 uint64
	Op32 uint64
	Op23 uint64
	Op33 uint64
	Op42 uint64
	Op24 uint64
}

// Get returns the index recorded for a specific pawn-file-type
// variant. Free has no associated index and always yields NoIndex.
func (idx PawnFileIndex) Get(t material.PawnFileType) uint64 {
	switch t {
	case material.Bp11:
		return idx.Bp11
	case material.Op11:
		return idx.Op11
	case material.Op21:
		return idx.Op21
	case material.Op12:
		return idx.Op12
	case material.Op22:
		return idx.Op22
	case material.Dp22:
		return idx.Dp22
	case material.Op31:
		return idx.Op31
	case material.Op13:
		return idx.Op13
	case material.Op14:
		return idx.Op14
	case material.Op41:
		return idx.Op41
	case material.Op32:
		return idx.Op32
	case material.Op23:
		return idx.Op23
	case material.Op33:
		return idx.Op33
	case material.Op42:
		return idx.Op42
	case material.Op24:
		return idx.Op24
	default:
		return NoIndex
	}
}

// Indexer is the external collaborator's contract: given a board
// encoding, side to move, and en-passant square, compute the table
// coordinates for that position.
type Indexer interface {
	ComputeMbInfo(squares [64]int8, sideToMove material.Side, epSquare int) (MbInfo, error)
}

// Compute builds the indexer's input from p and delegates to idx.
func Compute(idx Indexer, p *position.Position) (MbInfo, error) {
	info, err := idx.ComputeMbInfo(p.Squares(), p.Turn, p.EnPassantArg())
	if err != nil {
		return MbInfo{}, fmt.Errorf("mbinfo: compute_mb_info: %w", err)
	}
	return info, nil
}
