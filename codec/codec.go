// Package codec implements the two zstd decompression paths the table
// format needs: a streaming prefix decoder for the Mb hot path (decode
// only as many bytes of a block as are actually needed) and a pooled
// full-block decoder for the sparse HighDtc blocks, which must always be
// decoded in full to binary-search their entries.
package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	zstdpool "github.com/mostynb/zstdpool-freelist"
)

// Decompressor holds the persistent zstd stream state for one probe
// context. It is not safe for concurrent use: each caller that probes in
// parallel must hold its own Decompressor, matching the per-call
// ProbeContext the engine hands out.
type Decompressor struct {
	dec *zstd.Decoder
}

// NewDecompressor allocates a reusable streaming zstd decoder.
func NewDecompressor() (*Decompressor, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("codec: create zstd stream decoder: %w", err)
	}
	return &Decompressor{dec: dec}, nil
}

// Close releases the decoder's resources. The Decompressor must not be
// used afterward.
func (d *Decompressor) Close() {
	d.dec.Close()
}

// DecompressPrefix decompresses only as much of compressed as is needed to
// produce items elements of itemSize bytes each, stopping as soon as
// either the compressed input is exhausted or that many bytes have been
// produced. out is cleared first; on return its length in bytes is
// truncated to a multiple of itemSize, covering only the whole elements
// actually produced (which may be fewer than items if the block held
// less data than expected).
//
// This is the load-bearing latency trick of the Mb hot path: block_size is
// typically hundreds of KB, but a read_mb lookup only ever needs bytes
// [0, byte_index], so the remainder of the block is never decompressed.
func (d *Decompressor) DecompressPrefix(compressed []byte, out *[]byte, itemSize, items int) error {
	if itemSize <= 0 || items < 0 {
		return fmt.Errorf("codec: invalid itemSize=%d items=%d", itemSize, items)
	}
	want := itemSize * items

	*out = (*out)[:0]
	if cap(*out) < want {
		*out = make([]byte, want)
	} else {
		*out = (*out)[:want]
	}

	if err := d.dec.Reset(bytes.NewReader(compressed)); err != nil {
		return fmt.Errorf("codec: reset zstd stream: %w", err)
	}

	n, err := io.ReadFull(d.dec, *out)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("codec: zstd decompress: %w", err)
	}
	n -= n % itemSize
	*out = (*out)[:n]
	return nil
}

// decoderPool is shared across all callers; DecompressFull is safe for
// concurrent use.
var decoderPool = zstdpool.NewDecoderPool()

// DecompressFull fully decompresses compressed, which must hold an entire
// zstd frame. sizeHint pre-sizes the output buffer (pass the known
// uncompressed size to avoid reallocation); it need not be exact. Used for
// HighDtc blocks, which are always binary-searched as a whole.
func DecompressFull(compressed []byte, sizeHint int) ([]byte, error) {
	dec, err := decoderPool.Get(nil)
	if err != nil {
		return nil, fmt.Errorf("codec: get pooled zstd decoder: %w", err)
	}
	defer decoderPool.Put(dec)

	out, err := dec.DecodeAll(compressed, make([]byte, 0, sizeHint))
	if err != nil {
		return nil, fmt.Errorf("codec: zstd full decode: %w", err)
	}
	return out, nil
}
