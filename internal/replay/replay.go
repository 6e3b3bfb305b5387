// Package replay persists match frames as zstd-compressed JSONL so full
// matches stay cheap to keep and to re-watch.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"robosoccer/internal/sim"
)

// Frame is one recorded tick: the snapshot plus any events that fired.
type Frame struct {
	Snapshot sim.Snapshot `json:"snapshot"`
	Events   []sim.Event  `json:"events,omitempty"`
}

// Writer appends frames to a .jsonl.zst file, one JSON object per line.
type Writer struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}, nil
}

func (w *Writer) Write(fr Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return fmt.Errorf("replay: writer closed")
	}
	b, err := json.Marshal(fr)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	var firstErr error
	if err := w.w.Flush(); err != nil {
		firstErr = err
	}
	if err := w.enc.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.f.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	w.f = nil
	return firstErr
}

// Reader streams frames back out of a replay file.
type Reader struct {
	f   *os.File
	dec *zstd.Decoder
	sc  *bufio.Scanner
}

func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 256*1024), 16*1024*1024)
	return &Reader{f: f, dec: dec, sc: sc}, nil
}

// Next returns the next frame, or ok=false at end of file.
func (r *Reader) Next() (Frame, bool, error) {
	if !r.sc.Scan() {
		return Frame{}, false, r.sc.Err()
	}
	var fr Frame
	if err := json.Unmarshal(r.sc.Bytes(), &fr); err != nil {
		return Frame{}, false, err
	}
	return fr, true, nil
}

func (r *Reader) Close() error {
	r.dec.Close()
	return r.f.Close()
}
