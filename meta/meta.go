// Package meta reads the optional per-directory JSON statistics file
// that accompanies a table directory. Metadata is purely informational
// and exposed unchanged to callers; it never influences probing.
package meta

import (
	"io"
	"log/slog"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/bytebufferpool"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileEntry describes one table file's recorded size and optional
// checksums.
type FileEntry struct {
	Bytes  int64  `json:"bytes"`
	Md5    string `json:"md5,omitempty"`
	Sha256 string `json:"sha256,omitempty"`
}

// MaxPosition records the FEN reaching the longest DTC seen while
// generating the directory's tables.
type MaxPosition struct {
	Dtc int32  `json:"dtc"`
	Fen string `json:"fen"`
}

// Histograms holds ply-count distributions bucketed by side-to-move
// and outcome.
type Histograms struct {
	WtmWins []uint64 `json:"wtm_wins,omitempty"`
	WtmLost []uint64 `json:"wtm_lost,omitempty"`
	BtmWins []uint64 `json:"btm_wins,omitempty"`
	BtmLost []uint64 `json:"btm_lost,omitempty"`
}

// Meta is the full set of optional per-directory statistics. Every
// field is optional on read: a missing or zero-valued field simply
// means the generator didn't record it.
type Meta struct {
	Files      map[string]FileEntry `json:"files,omitempty"`
	Histograms Histograms           `json:"histograms,omitempty"`

	MaxPositions []MaxPosition `json:"max_positions,omitempty"`

	WtmMaxWin          int32  `json:"wtm_max_win,omitempty"`
	BtmMaxLoss         int32  `json:"btm_max_loss,omitempty"`
	WtmWins            uint64 `json:"wtm_wins,omitempty"`
	BtmLoses           uint64 `json:"btm_loses,omitempty"`
	WtmDraws           uint64 `json:"wtm_draws,omitempty"`
	BtmDraws           uint64 `json:"btm_draws,omitempty"`
	BtmWins            uint64 `json:"btm_wins,omitempty"`
	WtmLegal           uint64 `json:"wtm_legal,omitempty"`
	BtmLegal           uint64 `json:"btm_legal,omitempty"`
	BtmStalemated      uint64 `json:"btm_stalemated,omitempty"`
	WtmWinningCaptures uint64 `json:"wtm_winning_captures,omitempty"`
	BtmSavingCaptures  uint64 `json:"btm_saving_captures,omitempty"`
}

// Load reads and parses the metadata file at path. A missing file is
// not an error: it simply means the directory carries no metadata. A
// file that exists but fails to read or parse is logged and treated
// the same way, per the tolerant-read contract: a directory stays
// indexed even when its metadata is corrupt.
func Load(path string) *Meta {
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read table directory metadata, indexing without it", "path", path, "error", err)
		}
		return nil
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		slog.Warn("failed to stat table directory metadata, indexing without it", "path", path, "error", err)
		return nil
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	buf.B = make([]byte, fi.Size())
	if _, err := io.ReadFull(f, buf.B); err != nil {
		slog.Warn("failed to read table directory metadata, indexing without it", "path", path, "error", err)
		return nil
	}

	var m Meta
	if err := json.Unmarshal(buf.B, &m); err != nil {
		slog.Warn("failed to parse table directory metadata, indexing without it", "path", path, "error", err)
		return nil
	}
	return &m
}
