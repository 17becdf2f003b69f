package catalog

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lichess-org/mbtb/material"
)

// minimalMbFile writes just enough of a valid Mb table file (one
// single-byte block, uncompressed) for Open to succeed.
func minimalMbFile(t *testing.T, path string) {
	t.Helper()
	buf := make([]byte, 72+16)                 // header + (num_blocks=1)+1 offsets entries
	binary.LittleEndian.PutUint64(buf[32:], 1) // num_elements
	binary.LittleEndian.PutUint32(buf[48:], 1) // block_size
	binary.LittleEndian.PutUint32(buf[52:], 1) // num_blocks
	buf[63] = 1                                // list_element_size
	binary.LittleEndian.PutUint64(buf[72:], 0) // offsets[0]
	binary.LittleEndian.PutUint64(buf[80:], 1) // offsets[1]
	buf = append(buf, 42)                      // one data byte
	require.NoError(t, os.WriteFile(path, buf, 0o644))
}

func krp(t *testing.T) material.Material {
	t.Helper()
	m, err := material.Parse("KRK")
	require.NoError(t, err)
	return m
}

func TestAddPathRegistersConsistentFiles(t *testing.T) {
	root := t.TempDir()
	dirKey := material.DirectoryKey{Material: krp(t)}
	subdir := filepath.Join(root, dirKey.String())
	require.NoError(t, os.Mkdir(subdir, 0o755))

	tableKey := material.TableKey{Material: krp(t), Side: material.White, KkIndex: 0, TableType: material.Mb}
	minimalMbFile(t, filepath.Join(subdir, tableKey.String()))

	c := New()
	n, err := c.AddPath(root)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tb, ok, err := c.OpenTable(tableKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, tb)

	// A second OpenTable call returns the same cached handle.
	tb2, ok, err := c.OpenTable(tableKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, tb, tb2)
}

func TestOpenTableUnregisteredKeyIsMiss(t *testing.T) {
	c := New()
	tb, ok, err := c.OpenTable(material.TableKey{Material: krp(t), TableType: material.Mb})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, tb)
}

func TestAddPathIgnoresFileWithMismatchedDirectory(t *testing.T) {
	root := t.TempDir()
	dirKey := material.DirectoryKey{Material: krp(t)}
	subdir := filepath.Join(root, dirKey.String())
	require.NoError(t, os.Mkdir(subdir, 0o755))

	otherMaterial, err := material.Parse("KQK")
	require.NoError(t, err)
	mismatched := material.TableKey{Material: otherMaterial, Side: material.White, KkIndex: 0, TableType: material.Mb}
	minimalMbFile(t, filepath.Join(subdir, mismatched.String()))

	c := New()
	n, err := c.AddPath(root)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestAddPathIgnoresNonDirectoryKeySubdirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "not_a_key"), 0o755))

	c := New()
	n, err := c.AddPath(root)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
