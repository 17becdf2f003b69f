// Package table reads individual tablebase table files: the fixed
// header, the per-block compressed byte offsets, and either the
// densely packed Mb byte stream or the sparse HighDtc overflow
// records.
package table

import (
	"encoding/binary"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"github.com/lichess-org/mbtb/codec"
	"github.com/lichess-org/mbtb/tberr"
)

// MbValue is the decoded, tagged form of one Mb-table byte.
type MbValue struct {
	kind mbKind
	dtc  byte
}

type mbKind uint8

const (
	mbKindDtc mbKind = iota
	mbKindMaybeHighDtc
	mbKindUnresolved
)

func (v MbValue) IsMaybeHighDtc() bool { return v.kind == mbKindMaybeHighDtc }
func (v MbValue) IsUnresolved() bool   { return v.kind == mbKindUnresolved }

// Dtc returns the ply count and true when v carries a literal DTC
// value (as opposed to one of the sentinel meanings).
func (v MbValue) Dtc() (byte, bool) {
	return v.dtc, v.kind == mbKindDtc
}

// HighDtcValue is the decoded result of a HighDtc lookup: either a
// genuine overflow entry, or the 254 sentinel meaning "not actually
// high, keep the Mb table's value".
type HighDtcValue struct {
	Value int32
}

// IsFallback reports whether this result is the 254 sentinel rather
// than a stored overflow entry.
func (v HighDtcValue) IsFallback() bool { return v.Value == 254 }

// Table is a read handle for one table file, safe for concurrent use
// by multiple callers as long as each holds its own ProbeContext.
type Table struct {
	path    string
	f       *os.File
	header  Header
	isMb    bool
	offsets []uint64 // len = NumBlocks+1, cumulative compressed byte offsets

	// startingIndices holds, for HighDtc tables only, the first
	// logical element index stored in each block; len = NumBlocks+1,
	// with the final entry equal to NumElements.
	startingIndices []uint64

	dataStart int64 // file offset where compressed blocks begin
}

// Open reads and validates a table file's header and offset arrays
// for the given table type. It does not decompress any data block.
func Open(path string, isMb bool) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, tberr.Wrap(tberr.Io, path, err)
	}
	ok := false
	defer func() {
		if !ok {
			f.Close()
		}
	}()

	if err := unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_RANDOM); err != nil {
		slog.Warn("fadvise(RANDOM) failed", "path", path, "error", err)
	}

	head := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, head); err != nil {
		return nil, tberr.New(tberr.InvalidData, path, "read header: %w", err)
	}
	h, err := parseHeader(head)
	if err != nil {
		return nil, tberr.Wrap(tberr.InvalidData, path, err)
	}
	if err := h.validateForType(isMb); err != nil {
		return nil, tberr.Wrap(tberr.InvalidData, path, err)
	}

	offsets, err := readU64Array(f, path, int(h.NumBlocks)+1)
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return nil, tberr.New(tberr.InvalidData, path, "block offsets not non-decreasing at %d", i)
		}
	}

	t := &Table{
		path:    path,
		f:       f,
		header:  h,
		isMb:    isMb,
		offsets: offsets,
	}

	if !isMb {
		starting, err := readU64Array(f, path, int(h.NumBlocks)+1)
		if err != nil {
			return nil, err
		}
		for i := 1; i < len(starting); i++ {
			if starting[i] < starting[i-1] {
				return nil, tberr.New(tberr.InvalidData, path, "starting indices not non-decreasing at %d", i)
			}
		}
		t.startingIndices = starting
	}

	pos, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, tberr.New(tberr.Io, path, "seek: %w", err)
	}
	t.dataStart = pos

	if fi, statErr := f.Stat(); statErr == nil {
		slog.Info("opened table", "path", path, "size", humanize.Bytes(uint64(fi.Size())), "blocks", h.NumBlocks)
	}

	ok = true
	return t, nil
}

func readU64Array(f *os.File, path string, n int) ([]uint64, error) {
	buf := make([]byte, 8*n)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, tberr.New(tberr.InvalidData, path, "read u64 array: %w", err)
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(buf[8*i : 8*i+8])
	}
	return out, nil
}

// Close releases the underlying file descriptor.
func (t *Table) Close() error {
	return t.f.Close()
}

func (t *Table) Header() Header { return t.header }

// compressedBlock returns the raw compressed bytes of block i.
func (t *Table) compressedBlock(i int) ([]byte, error) {
	if i < 0 || i+1 >= len(t.offsets) {
		return nil, tberr.New(tberr.InvalidInput, t.path, "block index %d out of range", i)
	}
	start := t.dataStart + int64(t.offsets[i])
	size := int64(t.offsets[i+1] - t.offsets[i])
	buf := make([]byte, size)
	if _, err := t.f.ReadAt(buf, start); err != nil {
		return nil, tberr.New(tberr.Io, t.path, "read block %d: %w", i, err)
	}
	return buf, nil
}

// ProbeContext holds the per-call scratch state a single probing
// goroutine needs: a streaming zstd decoder plus a reusable
// decompressed-block buffer. It must not be shared across goroutines
// probing concurrently: each caller keeps its own.
type ProbeContext struct {
	dec          *codec.Decompressor
	decompressed []byte
}

// NewProbeContext allocates a fresh ProbeContext.
func NewProbeContext() (*ProbeContext, error) {
	dec, err := codec.NewDecompressor()
	if err != nil {
		return nil, err
	}
	return &ProbeContext{dec: dec}, nil
}

// Close releases the context's zstd decoder.
func (c *ProbeContext) Close() {
	c.dec.Close()
}

// ReadMb returns the decoded value at the given flat element index of
// an Mb table. Only bytes [0, k] of the owning block are ever
// decompressed.
func (t *Table) ReadMb(index uint64, ctx *ProbeContext) (MbValue, error) {
	if !t.isMb {
		return MbValue{}, tberr.New(tberr.InvalidInput, t.path, "ReadMb called on a non-Mb table")
	}
	blockSize := uint64(t.header.BlockSize)
	b := index / blockSize
	k := index % blockSize

	compressed, err := t.compressedBlock(int(b))
	if err != nil {
		return MbValue{}, err
	}

	var raw byte
	if t.header.CompressionMethod == CompressionNone {
		if int(k) >= len(compressed) {
			return MbValue{}, tberr.New(tberr.InvalidData, t.path, "uncompressed block %d too short for index %d", b, index)
		}
		raw = compressed[k]
	} else {
		if err := ctx.dec.DecompressPrefix(compressed, &ctx.decompressed, 1, int(k)+1); err != nil {
			return MbValue{}, tberr.Wrap(tberr.InvalidData, t.path, err)
		}
		if uint64(len(ctx.decompressed)) <= k {
			return MbValue{}, tberr.New(tberr.InvalidData, t.path, "block %d decompressed short of index %d", b, index)
		}
		raw = ctx.decompressed[k]
	}

	switch {
	case raw == 255:
		return MbValue{kind: mbKindUnresolved}, nil
	case raw == 254 && t.header.MaybeHighDtcIsEscape():
		// The literal 254 byte is preserved on the escape path: a
		// HighDtc miss falls back to treating it as the Mb table's
		// own DTC value, not as "unresolved".
		return MbValue{kind: mbKindMaybeHighDtc, dtc: raw}, nil
	default:
		return MbValue{kind: mbKindDtc, dtc: raw}, nil
	}
}

// highDtcRecordSize is the on-disk width of one overflow record:
// index (u64), value (i32), and 4 bytes of padding.
const highDtcRecordSize = 16

// ReadHighDtc looks up the overflow DTC value for a flat element
// index in a HighDtc table.
func (t *Table) ReadHighDtc(index uint64, ctx *ProbeContext) (HighDtcValue, error) {
	if t.isMb {
		return HighDtcValue{}, tberr.New(tberr.InvalidInput, t.path, "ReadHighDtc called on a non-HighDtc table")
	}

	// Find the last block whose starting index is <= index.
	b := sort.Search(len(t.startingIndices), func(i int) bool {
		return t.startingIndices[i] > index
	}) - 1
	if b < 0 || b >= int(t.header.NumBlocks) {
		return HighDtcValue{Value: 254}, nil
	}

	compressed, err := t.compressedBlock(b)
	if err != nil {
		return HighDtcValue{}, err
	}

	entriesPerBlock := int(t.header.BlockSize) / highDtcRecordSize
	var raw []byte
	if t.header.CompressionMethod == CompressionNone {
		raw = compressed
	} else {
		raw, err = codec.DecompressFull(compressed, entriesPerBlock*highDtcRecordSize)
		if err != nil {
			return HighDtcValue{}, tberr.Wrap(tberr.InvalidData, t.path, err)
		}
	}

	if b == int(t.header.NumBlocks)-1 {
		if rem := int(t.header.NumElements) % entriesPerBlock; rem != 0 && rem*highDtcRecordSize < len(raw) {
			raw = raw[:rem*highDtcRecordSize]
		}
	}

	n := len(raw) / highDtcRecordSize
	i := sort.Search(n, func(i int) bool {
		return binary.LittleEndian.Uint64(raw[i*highDtcRecordSize:]) >= index
	})
	if i >= n || binary.LittleEndian.Uint64(raw[i*highDtcRecordSize:]) != index {
		return HighDtcValue{Value: 254}, nil
	}
	value := int32(binary.LittleEndian.Uint32(raw[i*highDtcRecordSize+8:]))
	return HighDtcValue{Value: value}, nil
}
