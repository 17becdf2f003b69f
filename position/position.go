// Package position is a minimal chess-position representation. The
// probing engine depends on a full chess rules implementation only
// for a narrow set of facts about a position: its piece placement,
// side to move, en-passant target, castling rights, and a handful of
// derived predicates. This package models exactly that surface rather
// than legal-move generation, check detection, or SAN/PGN parsing.
package position

import "github.com/lichess-org/mbtb/material"

// Piece is a signed role occupying a square: positive magnitude for
// White, negative for Black, matching the index bridge's encoding
// (pawn=1, knight=2, bishop=3, rook=4, queen=5, king=6).
type Piece int8

// Square is a 0..63 board index, a8=0 .. h1=63 in rank-major order
// matching the index bridge's square numbering.
type Square int8

// NoEnPassant marks a position with no legal en-passant capture.
const NoEnPassant Square = -1

// Position is the full input the engine needs from a chess position.
type Position struct {
	Board     [64]Piece
	Turn      material.Side
	EnPassant Square // NoEnPassant if none

	WhiteCastleKingside  bool
	WhiteCastleQueenside bool
	BlackCastleKingside  bool
	BlackCastleQueenside bool
}

// HasCastlingRights reports whether any castling right is still set.
func (p *Position) HasCastlingRights() bool {
	return p.WhiteCastleKingside || p.WhiteCastleQueenside ||
		p.BlackCastleKingside || p.BlackCastleQueenside
}

// Occupied returns the number of non-empty squares.
func (p *Position) Occupied() int {
	n := 0
	for _, pc := range p.Board {
		if pc != 0 {
			n++
		}
	}
	return n
}

// Material counts the pieces of each role and color present on the
// board (kings included).
func (p *Position) Material() material.Material {
	var m material.Material
	for _, pc := range p.Board {
		if pc == 0 {
			continue
		}
		role := material.Role(abs8(int8(pc)) - 1)
		if pc > 0 {
			m.White[role]++
		} else {
			m.Black[role]++
		}
	}
	return m
}

// strengthValue is the point weight strength() assigns to each role;
// kings are excluded (weight 0).
var strengthValue = [6]int32{
	material.King:   0,
	material.Queen:  9,
	material.Rook:   5,
	material.Bishop: 3,
	material.Knight: 3,
	material.Pawn:   1,
}

// Strength sums the point weight of side's non-king material, used by
// the probe engine's symmetry-normalization rule. The sum is plain
// int32 addition; with at most 9 total pieces on the board it cannot
// overflow.
func (p *Position) Strength(side material.Side) int32 {
	m := p.Material()
	counts := m.White
	if side == material.Black {
		counts = m.Black
	}
	var total int32
	for _, role := range material.Order {
		total += strengthValue[role] * int32(counts[role])
	}
	return total
}

// InsufficientMaterial reports whether neither side has enough force
// left to deliver checkmate: king-only vs. king-only, or king-only
// vs. a lone minor piece, on either side.
func (p *Position) InsufficientMaterial() bool {
	m := p.Material()
	// A side with zero strength has nothing but its king.
	return (p.Strength(material.White) == 0 && isBareOrLoneMinor(m.Black)) ||
		(p.Strength(material.Black) == 0 && isBareOrLoneMinor(m.White))
}

func isBareOrLoneMinor(c material.Counts) bool {
	var nonKing int
	for _, r := range material.Order {
		if r == material.King {
			continue
		}
		nonKing += int(c[r])
	}
	if nonKing == 0 {
		return true
	}
	return nonKing == 1 && (c[material.Bishop] == 1 || c[material.Knight] == 1)
}

// Mirror returns the vertical rank reflection of p with colors
// swapped: the position an equivalent probe from the opposite side
// would see. Square a8 maps to a1, h1 maps to h8, and so on; pieces
// change color in place.
func (p *Position) Mirror() *Position {
	m := &Position{
		Turn:      p.Turn.Other(),
		EnPassant: mirrorSquare(p.EnPassant),

		WhiteCastleKingside:  p.BlackCastleKingside,
		WhiteCastleQueenside: p.BlackCastleQueenside,
		BlackCastleKingside:  p.WhiteCastleKingside,
		BlackCastleQueenside: p.WhiteCastleQueenside,
	}
	for sq, pc := range p.Board {
		if pc == 0 {
			continue
		}
		m.Board[mirrorIndex(sq)] = -pc
	}
	return m
}

func mirrorIndex(sq int) int {
	rank := sq / 8
	file := sq % 8
	return (7-rank)*8 + file
}

func mirrorSquare(sq Square) Square {
	if sq == NoEnPassant {
		return NoEnPassant
	}
	return Square(mirrorIndex(int(sq)))
}

func abs8(v int8) int8 {
	if v < 0 {
		return -v
	}
	return v
}

// Squares encodes the board into the 64-entry signed array the index
// bridge collaborator expects: empty=0, piece magnitude=role number
// (pawn=1..king=6), sign=color (positive=White).
func (p *Position) Squares() [64]int8 {
	var out [64]int8
	for i, pc := range p.Board {
		out[i] = int8(pc)
	}
	return out
}

// EnPassantArg returns the en-passant square as the index bridge
// expects it: the square index, or 0 when there is none.
func (p *Position) EnPassantArg() int {
	if p.EnPassant == NoEnPassant {
		return 0
	}
	return int(p.EnPassant)
}
