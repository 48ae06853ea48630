package asset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Artifact describes one staged or committed output file.
type Artifact struct {
	Name string // metrics label, e.g. "json", "zstd", "configmap"
	Path string
	Size int64
}

type stagedFile struct {
	Artifact
	tmp string
}

// Writer stages artifacts into temp files next to their destinations and
// moves them into place only on Commit. Until then no destination is touched.
// A Writer is not safe for concurrent use.
type Writer struct {
	staged []stagedFile
	done   bool
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// countingWriter counts bytes written through it.
type countingWriter struct {
	w     io.Writer
	count int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.count += int64(n)
	return n, err
}

// Stage writes an artifact to a temp file in the directory of dest using fn.
// The returned size is the number of bytes fn wrote.
func (w *Writer) Stage(name, dest string, fn func(io.Writer) error) (int64, error) {
	if w.done {
		return 0, fmt.Errorf("asset: stage %s: writer already finished", name)
	}

	f, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("asset: stage %s: %w", name, err)
	}
	tmp := f.Name()

	cw := &countingWriter{w: f}
	if err := fn(cw); err != nil {
		f.Close()
		os.Remove(tmp)
		return 0, fmt.Errorf("asset: stage %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("asset: stage %s: close: %w", name, err)
	}
	// CreateTemp uses 0600; published assets are world-readable.
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("asset: stage %s: chmod: %w", name, err)
	}

	w.staged = append(w.staged, stagedFile{
		Artifact: Artifact{Name: name, Path: dest, Size: cw.count},
		tmp:      tmp,
	})
	return cw.count, nil
}

// StageBytes stages data verbatim.
func (w *Writer) StageBytes(name, dest string, data []byte) (int64, error) {
	return w.Stage(name, dest, func(out io.Writer) error {
		_, err := out.Write(data)
		return err
	})
}

// StageZstd stages data compressed with zstd at level (1 fastest, 4 best).
func (w *Writer) StageZstd(name, dest string, data []byte, level int) (int64, error) {
	return w.Stage(name, dest, func(out io.Writer) error {
		zw, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.EncoderLevel(level)))
		if err != nil {
			return fmt.Errorf("create zstd encoder: %w", err)
		}
		if _, err := zw.Write(data); err != nil {
			zw.Close()
			return err
		}
		// Close flushes the final frame.
		return zw.Close()
	})
}

// Staged returns the artifacts staged so far, in staging order.
func (w *Writer) Staged() []Artifact {
	out := make([]Artifact, len(w.staged))
	for i, s := range w.staged {
		out[i] = s.Artifact
	}
	return out
}

// Commit renames every staged artifact onto its destination. If a rename
// fails the remaining temp files are removed.
func (w *Writer) Commit() error {
	if w.done {
		return fmt.Errorf("asset: commit: writer already finished")
	}
	w.done = true

	for i, s := range w.staged {
		if err := os.Rename(s.tmp, s.Path); err != nil {
			for _, rest := range w.staged[i:] {
				os.Remove(rest.tmp)
			}
			return fmt.Errorf("asset: commit %s: %w", s.Name, err)
		}
	}
	return nil
}

// Abort removes all staged temp files. It is a no-op after Commit.
func (w *Writer) Abort() {
	if w.done {
		return
	}
	w.done = true
	for _, s := range w.staged {
		os.Remove(s.tmp)
	}
}
