package mbinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lichess-org/mbtb/material"
	"github.com/lichess-org/mbtb/position"
)

type fakeIndexer struct {
	info MbInfo
	err  error
}

func (f fakeIndexer) ComputeMbInfo(squares [64]int8, sideToMove material.Side, epSquare int) (MbInfo, error) {
	return f.info, f.err
}

func TestPawnFileIndexGet(t *testing.T) {
	idx := PawnFileIndex{Op21: 7, Dp22: NoIndex}
	assert.EqualValues(t, 7, idx.Get(material.Op21))
	assert.Equal(t, NoIndex, idx.Get(material.Dp22))
	assert.Equal(t, NoIndex, idx.Get(material.Free))
}

func TestComputeDelegatesToIndexer(t *testing.T) {
	want := MbInfo{KkIndex: 42, PawnFileType: material.Op11}
	p := &position.Position{Turn: material.White, EnPassant: position.NoEnPassant}

	got, err := Compute(fakeIndexer{info: want}, p)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestComputeWrapsIndexerError(t *testing.T) {
	p := &position.Position{Turn: material.White, EnPassant: position.NoEnPassant}
	_, err := Compute(fakeIndexer{err: assertError("boom")}, p)
	require.Error(t, err)
}

type assertError string

func (e assertError) Error() string { return string(e) }
