package mbtb

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lichess-org/mbtb/material"
	"github.com/lichess-org/mbtb/mbinfo"
	"github.com/lichess-org/mbtb/position"
)

func TestValueNegate(t *testing.T) {
	assert.Equal(t, Draw, Draw.Negate())
	assert.Equal(t, Dtc(-7), Dtc(7).Negate())
}

func TestValueZeroDraw(t *testing.T) {
	n, ok := Draw.ZeroDraw()
	assert.True(t, ok)
	assert.EqualValues(t, 0, n)

	n, ok = Dtc(0).ZeroDraw()
	assert.False(t, ok)
	assert.EqualValues(t, 0, n)

	n, ok = Dtc(5).ZeroDraw()
	assert.True(t, ok)
	assert.EqualValues(t, 5, n)
}

func TestValuePlies(t *testing.T) {
	_, ok := Draw.Plies()
	assert.False(t, ok)
	n, ok := Dtc(12).Plies()
	require.True(t, ok)
	assert.EqualValues(t, 12, n)
}

// fixedIndexer always reports the same KkIndex/material-independent
// MbInfo, which is all a synthetic single-table fixture needs.
type fixedIndexer struct {
	info mbInfoProvider
}

type mbInfoProvider func(squares [64]int8, side material.Side, ep int) mbinfo.MbInfo

func (f fixedIndexer) ComputeMbInfo(squares [64]int8, side material.Side, ep int) (mbinfo.MbInfo, error) {
	return f.info(squares, side, ep), nil
}

func krkPosition() *position.Position {
	p := &position.Position{Turn: material.White, EnPassant: position.NoEnPassant}
	p.Board[60] = 6 // e1 white king
	p.Board[4] = -6 // e8 black king
	p.Board[52] = 4 // e2 white rook
	return p
}

func writeMbTable(t *testing.T, root string, key material.TableKey, row []byte) {
	t.Helper()
	dirKey := key.DirectoryKey()
	subdir := filepath.Join(root, dirKey.String())
	require.NoError(t, os.MkdirAll(subdir, 0o755))

	header := make([]byte, 72)
	binary.LittleEndian.PutUint64(header[32:], uint64(len(row)))
	binary.LittleEndian.PutUint32(header[48:], uint32(len(row)))
	binary.LittleEndian.PutUint32(header[52:], 1)
	header[63] = 1

	offsets := make([]byte, 16)
	binary.LittleEndian.PutUint64(offsets[8:], uint64(len(row)))

	buf := append(header, offsets...)
	buf = append(buf, row...)
	require.NoError(t, os.WriteFile(filepath.Join(subdir, key.String()), buf, 0o644))
}

func TestProbeInsufficientMaterialShortCircuits(t *testing.T) {
	tb, err := New(fixedIndexer{info: func(_ [64]int8, _ material.Side, _ int) mbinfo.MbInfo { return mbinfo.MbInfo{} }})
	require.NoError(t, err)

	p := &position.Position{Turn: material.White, EnPassant: position.NoEnPassant}
	p.Board[60] = 6
	p.Board[4] = -6

	v, err := tb.Probe(p)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.True(t, v.IsDraw())
}

func TestProbeUnknownOnCastlingRights(t *testing.T) {
	tb, err := New(fixedIndexer{info: func(_ [64]int8, _ material.Side, _ int) mbinfo.MbInfo { return mbinfo.MbInfo{} }})
	require.NoError(t, err)

	p := krkPosition()
	p.WhiteCastleKingside = true

	v, err := tb.Probe(p)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func plainParityInfo(kk material.KkIndex, index uint64) mbinfo.MbInfo {
	return mbinfo.MbInfo{
		KkIndex: kk,
		ParityIndex: []mbinfo.ParityCandidate{
			{BishopParity: [2]material.BishopParity{material.ParityNone, material.ParityNone}, Index: index},
		},
	}
}

func TestProbeUnknownWhenTableMissing(t *testing.T) {
	tb, err := New(fixedIndexer{info: func(_ [64]int8, _ material.Side, _ int) mbinfo.MbInfo {
		return plainParityInfo(0, 0)
	}})
	require.NoError(t, err)

	p := krkPosition()
	v, err := tb.Probe(p)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestProbeResolvesDtcFromMbTable(t *testing.T) {
	root := t.TempDir()
	m, err := material.Parse("KRK")
	require.NoError(t, err)
	key := material.TableKey{Material: m, Side: material.White, KkIndex: 0, TableType: material.Mb}
	writeMbTable(t, root, key, []byte{15})

	tb, err := New(fixedIndexer{info: func(_ [64]int8, _ material.Side, _ int) mbinfo.MbInfo {
		return plainParityInfo(0, 0)
	}})
	require.NoError(t, err)
	_, err = tb.AddPath(root)
	require.NoError(t, err)

	v, err := tb.Probe(krkPosition())
	require.NoError(t, err)
	require.NotNil(t, v)
	n, ok := v.Plies()
	require.True(t, ok)
	assert.EqualValues(t, 15, n)

	snap := tb.Stats()
	assert.EqualValues(t, 1, snap.TruePredictions)
}

// TestProbeBothSidesUnresolvedIsDraw exercises the two-probe
// reconciliation rule: a forward Mb byte of 255 (Unresolved) with no
// rook left on the mirrored side's white king falls through to the
// lone-king short circuit on the flipped probe, and both sides
// Unresolved resolves to Draw.
func TestProbeBothSidesUnresolvedIsDraw(t *testing.T) {
	root := t.TempDir()
	m, err := material.Parse("KRK")
	require.NoError(t, err)
	key := material.TableKey{Material: m, Side: material.White, KkIndex: 0, TableType: material.Mb}
	writeMbTable(t, root, key, []byte{255})

	tb, err := New(fixedIndexer{info: func(_ [64]int8, _ material.Side, _ int) mbinfo.MbInfo {
		return plainParityInfo(0, 0)
	}})
	require.NoError(t, err)
	_, err = tb.AddPath(root)
	require.NoError(t, err)

	v, err := tb.Probe(krkPosition())
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.True(t, v.IsDraw())

	snap := tb.Stats()
	assert.EqualValues(t, 1, snap.Draws)
}
