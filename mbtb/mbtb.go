// Package mbtb is an endgame tablebase probing engine: given a legal
// chess position with at most nine pieces, it consults a catalog of
// on-disk compressed tables and returns the position's game-theoretic
// value: a draw, or a signed distance-to-conversion in plies.
package mbtb

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/lichess-org/mbtb/catalog"
	"github.com/lichess-org/mbtb/material"
	"github.com/lichess-org/mbtb/mbinfo"
	"github.com/lichess-org/mbtb/meta"
	"github.com/lichess-org/mbtb/metrics"
	"github.com/lichess-org/mbtb/position"
	"github.com/lichess-org/mbtb/selector"
	"github.com/lichess-org/mbtb/table"
)

// Value is a resolved probe result.
type Value struct {
	draw bool
	dtc  int32
}

// Draw is the drawn-game value.
var Draw = Value{draw: true}

// Dtc builds a signed distance-to-conversion value.
func Dtc(n int32) Value { return Value{dtc: n} }

// IsDraw reports whether v is a draw.
func (v Value) IsDraw() bool { return v.draw }

// Plies returns the signed ply count and true, unless v is a draw.
func (v Value) Plies() (int32, bool) {
	if v.draw {
		return 0, false
	}
	return v.dtc, true
}

// Negate returns the value as seen from the other side: Draw is
// unaffected, Dtc(n) becomes Dtc(-n).
func (v Value) Negate() Value {
	if v.draw {
		return v
	}
	return Dtc(-v.dtc)
}

// ZeroDraw collapses Draw into a ply count of zero for callers that
// render "drawn" and "mate already on the board" the same way, while
// still distinguishing a genuine Dtc(0) (checkmate already on the
// board) by returning ok=false for that one case: Draw
// yields (0, true), Dtc(0) yields (0, false), and any other Dtc(n)
// yields (n, true).
func (v Value) ZeroDraw() (int32, bool) {
	switch {
	case v.draw:
		return 0, true
	case v.dtc == 0:
		return 0, false
	default:
		return v.dtc, true
	}
}

func (v Value) String() string {
	if v.draw {
		return "draw"
	}
	return fmt.Sprintf("dtc(%d)", v.dtc)
}

// Stats are the engine's monotonic, relaxed-ordering probe counters.
// Values are observable but not transactionally consistent with any
// single probe's result.
type Stats struct {
	draws            atomic.Uint64
	truePredictions  atomic.Uint64
	falsePredictions atomic.Uint64
}

// Snapshot is a point-in-time read of Stats.
type Snapshot struct {
	Draws            uint64
	TruePredictions  uint64
	FalsePredictions uint64
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Draws:            s.draws.Load(),
		TruePredictions:  s.truePredictions.Load(),
		FalsePredictions: s.falsePredictions.Load(),
	}
}

// Tablebase is the public entry point: a read-mostly probing engine
// safe to call concurrently from multiple goroutines once add_path
// calls have finished.
type Tablebase struct {
	indexer mbinfo.Indexer
	catalog *catalog.Catalog
	stats   Stats
}

var (
	indexerInitOnce sync.Once
	indexerInitErr  error
)

// New constructs an empty Tablebase backed by idx, the injected
// implementation of the external index-computation collaborator.
// Process-wide one-time initialization of idx runs exactly once,
// idempotently, across every Tablebase constructed in the process.
func New(idx mbinfo.Indexer) (*Tablebase, error) {
	indexerInitOnce.Do(func() {
		if initializer, ok := idx.(interface{ Init() error }); ok {
			indexerInitErr = initializer.Init()
		}
	})
	if indexerInitErr != nil {
		return nil, fmt.Errorf("mbtb: index routine initialization: %w", indexerInitErr)
	}
	return &Tablebase{
		indexer: idx,
		catalog: catalog.New(),
	}, nil
}

// AddPath scans dir for table directories and registers their tables,
// merging idempotently into the existing catalog. Duplicate keys from
// a later call overwrite earlier registrations.
func (t *Tablebase) AddPath(dir string) (int, error) {
	return t.catalog.AddPath(dir)
}

// Meta returns the metadata recorded for a directory key, if any.
func (t *Tablebase) Meta(key material.DirectoryKey) (*meta.Meta, bool) {
	return t.catalog.Meta(key)
}

// MetaKeys returns every directory key the catalog holds metadata
// for.
func (t *Tablebase) MetaKeys() []material.DirectoryKey {
	return t.catalog.MetaKeys()
}

// Stats returns a point-in-time snapshot of the probe counters.
func (t *Tablebase) Stats() Snapshot {
	return t.stats.Snapshot()
}

// Probe resolves p to its game-theoretic value. A nil Value with a
// nil error means "unknown": the position is unsupported (castling
// rights set, or more than nine pieces) or a required table is
// missing from the catalog. A non-nil error means an underlying table
// file was present but unreadable or malformed.
func (t *Tablebase) Probe(p *position.Position) (*Value, error) {
	ctx, err := table.NewProbeContext()
	if err != nil {
		return nil, fmt.Errorf("mbtb: new probe context: %w", err)
	}
	defer ctx.Close()
	return t.probe(p, ctx)
}

func (t *Tablebase) probe(p *position.Position, ctx *table.ProbeContext) (*Value, error) {
	metrics.ProbesTotal.Inc()

	if p.InsufficientMaterial() {
		metrics.ProbeOutcome.WithLabelValues("draw").Inc()
		return &Draw, nil
	}
	if p.Occupied() > material.MaxPieces || p.HasCastlingRights() {
		metrics.ProbeOutcome.WithLabelValues("unknown").Inc()
		return nil, nil
	}

	normalized := p
	if normalized.Strength(material.White) < normalized.Strength(material.Black) {
		normalized = normalized.Mirror()
	}

	v1, err := t.probeSide(normalized, ctx)
	if err != nil {
		return nil, err
	}
	if v1 == nil {
		metrics.ProbeOutcome.WithLabelValues("unknown").Inc()
		return nil, nil
	}
	if v1.kind != sideUnresolved {
		result := Dtc(normalized.Turn.Sign() * int32(v1.dtc))
		t.stats.truePredictions.Add(1)
		metrics.ProbeOutcome.WithLabelValues("true_prediction").Inc()
		return &result, nil
	}

	mirrored := normalized.Mirror()
	v2, err := t.probeSide(mirrored, ctx)
	if err != nil {
		return nil, err
	}
	if v2 == nil {
		metrics.ProbeOutcome.WithLabelValues("unknown").Inc()
		return nil, nil
	}
	if v2.kind == sideUnresolved {
		t.stats.draws.Add(1)
		metrics.ProbeOutcome.WithLabelValues("draw").Inc()
		return &Draw, nil
	}
	result := Dtc(mirrored.Turn.Sign() * int32(v2.dtc))
	t.stats.falsePredictions.Add(1)
	metrics.ProbeOutcome.WithLabelValues("false_prediction").Inc()
	return &result, nil
}

type sideValueKind uint8

const (
	sideDtc sideValueKind = iota
	sideUnresolved
)

type sideValue struct {
	kind sideValueKind
	dtc  int32
}

// probeSide runs one side's worth of the two-probe reconciliation
// protocol: Index bridge, Mb selection, and, on the MaybeHighDtc
// escape, a second HighDtc selection. Returns nil when the index
// bridge fails or no table was available for this side.
func (t *Tablebase) probeSide(p *position.Position, ctx *table.ProbeContext) (*sideValue, error) {
	m := p.Material()
	if whiteTotal(m) <= 1 {
		return &sideValue{kind: sideUnresolved}, nil
	}

	info, err := mbinfo.Compute(t.indexer, p)
	if err != nil {
		slog.Warn("index bridge failed for position", "material", m.String(), "error", err)
		return nil, nil
	}

	mbRes, ok, err := selector.Select(t.catalog, m, p.Turn, material.Mb, info)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.Warn("no mb table for position", "material", m.String())
		metrics.MissingTableTotal.WithLabelValues(p.Turn.String()).Inc()
		return nil, nil
	}

	mbVal, err := mbRes.Table.ReadMb(mbRes.Index, ctx)
	if err != nil {
		return nil, err
	}
	if mbVal.IsUnresolved() {
		return &sideValue{kind: sideUnresolved}, nil
	}
	if !mbVal.IsMaybeHighDtc() {
		dtc, _ := mbVal.Dtc()
		return &sideValue{dtc: int32(dtc)}, nil
	}

	hiRes, ok, err := selector.Select(t.catalog, m, p.Turn, material.HighDtc, info)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.Warn("no high-dtc table for maybe-high-dtc position", "material", m.String())
		metrics.MissingTableTotal.WithLabelValues(p.Turn.String()).Inc()
		return nil, nil
	}
	hiVal, err := hiRes.Table.ReadHighDtc(hiRes.Index, ctx)
	if err != nil {
		return nil, err
	}
	return &sideValue{dtc: hiVal.Value}, nil
}

func whiteTotal(m material.Material) int {
	n := 0
	for _, c := range m.White {
		n += int(c)
	}
	return n
}
