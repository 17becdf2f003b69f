// Package selector implements the ordered search that resolves a
// position's material and MbInfo to the one table variant to probe:
// bishop-parity subtables first, falling back to pawn-file-type
// subtables.
package selector

import (
	"github.com/lichess-org/mbtb/catalog"
	"github.com/lichess-org/mbtb/material"
	"github.com/lichess-org/mbtb/mbinfo"
	"github.com/lichess-org/mbtb/table"
)

// Result is a resolved (key, table, index) triple ready to probe.
type Result struct {
	Key   material.TableKey
	Table *table.Table
	Index uint64
}

// Select runs the ordered search and returns the first candidate the
// catalog has a table for. The bool is false when no candidate table
// exists.
func Select(cat *catalog.Catalog, m material.Material, side material.Side, tableType material.TableType, info mbinfo.MbInfo) (Result, bool, error) {
	for _, cand := range info.ParityIndex {
		key := material.TableKey{
			Material:    m,
			PawnType:    material.Free,
			BishopWhite: cand.BishopParity[material.White],
			BishopBlack: cand.BishopParity[material.Black],
			Side:        side,
			KkIndex:     info.KkIndex,
			TableType:   tableType,
		}
		tb, ok, err := cat.OpenTable(key)
		if err != nil {
			return Result{}, false, err
		}
		if ok {
			return Result{Key: key, Table: tb, Index: cand.Index}, true, nil
		}
	}

	for _, pc := range pawnFileCandidates(info) {
		if pc.index == mbinfo.NoIndex {
			continue
		}
		key := material.TableKey{
			Material:  m,
			PawnType:  pc.pawnType,
			Side:      side,
			KkIndex:   info.KkIndex,
			TableType: tableType,
		}
		tb, ok, err := cat.OpenTable(key)
		if err != nil {
			return Result{}, false, err
		}
		if ok {
			return Result{Key: key, Table: tb, Index: pc.index}, true, nil
		}
	}
	return Result{}, false, nil
}

type pawnFileCandidate struct {
	pawnType material.PawnFileType
	index    uint64
}

// pawnFileCandidates lists the pawn-file-type fallback candidates in
// priority order. Bp11 and Dp22 each try their "open" counterpart
// (Op11, Op22) before their own variant; every other pawn-file type
// has exactly one candidate.
func pawnFileCandidates(info mbinfo.MbInfo) []pawnFileCandidate {
	switch info.PawnFileType {
	case material.Free:
		return nil
	case material.Bp11:
		return []pawnFileCandidate{
			{material.Op11, info.PawnFileIndex.Op11},
			{material.Bp11, info.PawnFileIndex.Bp11},
		}
	case material.Dp22:
		return []pawnFileCandidate{
			{material.Op22, info.PawnFileIndex.Op22},
			{material.Dp22, info.PawnFileIndex.Dp22},
		}
	default:
		return []pawnFileCandidate{
			{info.PawnFileType, info.PawnFileIndex.Get(info.PawnFileType)},
		}
	}
}
