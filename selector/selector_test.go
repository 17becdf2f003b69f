package selector

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lichess-org/mbtb/catalog"
	"github.com/lichess-org/mbtb/material"
	"github.com/lichess-org/mbtb/mbinfo"
)

func krp(t *testing.T) material.Material {
	t.Helper()
	m, err := material.Parse("KRK")
	require.NoError(t, err)
	return m
}

func writeMinimalMb(t *testing.T, path string) {
	t.Helper()
	buf := make([]byte, 72+16)
	binary.LittleEndian.PutUint64(buf[32:], 1)
	binary.LittleEndian.PutUint32(buf[48:], 1)
	binary.LittleEndian.PutUint32(buf[52:], 1)
	buf[63] = 1
	binary.LittleEndian.PutUint64(buf[80:], 1)
	buf = append(buf, 9)
	require.NoError(t, os.WriteFile(path, buf, 0o644))
}

func newCatalogWithTable(t *testing.T, key material.TableKey) *catalog.Catalog {
	t.Helper()
	root := t.TempDir()
	dirKey := key.DirectoryKey()
	subdir := filepath.Join(root, dirKey.String())
	require.NoError(t, os.Mkdir(subdir, 0o755))
	writeMinimalMb(t, filepath.Join(subdir, key.String()))

	c := catalog.New()
	_, err := c.AddPath(root)
	require.NoError(t, err)
	return c
}

func TestSelectBishopParityCandidateWins(t *testing.T) {
	m := krp(t)
	key := material.TableKey{Material: m, BishopWhite: material.ParityEven, Side: material.White, KkIndex: 3, TableType: material.Mb}
	c := newCatalogWithTable(t, key)

	info := mbinfo.MbInfo{
		KkIndex: 3,
		ParityIndex: []mbinfo.ParityCandidate{
			{BishopParity: [2]material.BishopParity{material.ParityEven, material.ParityNone}, Index: 17},
		},
	}

	res, ok, err := Select(c, m, material.White, material.Mb, info)
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 17, res.Index)
	assert.Equal(t, key, res.Key)
}

func TestSelectBp11FallsThroughToOp11(t *testing.T) {
	m := krp(t)
	key := material.TableKey{Material: m, PawnType: material.Op11, Side: material.White, KkIndex: 0, TableType: material.Mb}
	c := newCatalogWithTable(t, key)

	info := mbinfo.MbInfo{
		PawnFileType: material.Bp11,
		PawnFileIndex: mbinfo.PawnFileIndex{
			Op11: 5,
			Bp11: mbinfo.NoIndex,
		},
	}

	res, ok, err := Select(c, m, material.White, material.Mb, info)
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 5, res.Index)
	assert.Equal(t, material.Op11, res.Key.PawnType)
}

func TestSelectBp11FallsBackWhenOp11Missing(t *testing.T) {
	m := krp(t)
	key := material.TableKey{Material: m, PawnType: material.Bp11, Side: material.White, KkIndex: 0, TableType: material.Mb}
	c := newCatalogWithTable(t, key)

	info := mbinfo.MbInfo{
		PawnFileType: material.Bp11,
		PawnFileIndex: mbinfo.PawnFileIndex{
			Op11: mbinfo.NoIndex, // not applicable
			Bp11: 9,
		},
	}

	res, ok, err := Select(c, m, material.White, material.Mb, info)
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 9, res.Index)
	assert.Equal(t, material.Bp11, res.Key.PawnType)
}

func TestSelectFreePawnTypeWithNoParityCandidatesMisses(t *testing.T) {
	c := catalog.New()
	info := mbinfo.MbInfo{PawnFileType: material.Free}

	_, ok, err := Select(c, krp(t), material.White, material.Mb, info)
	require.NoError(t, err)
	assert.False(t, ok)
}
