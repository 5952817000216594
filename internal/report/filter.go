// Package report writes filtered sequences, trial histories and summaries.
package report

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"

	"github.com/aria-lang/primerscan-go/internal/evaluate"
)

// Suffixes of the files written per input group.
const (
	WithPrimersSuffix    = "_with_primers.fasta"
	WithoutPrimersSuffix = "_wo_primers.fasta"
)

// DefaultWidth is the FASTA line width.
const DefaultWidth = 60

// FilterWriter writes every accepted read of a group twice, with and
// without its primers, into <dir>/<group><suffix>. Reads accepted in the
// reverse-complement orientation are written in primer orientation. It is
// meant to be used as an evaluate.Aggregator Visit callback.
type FilterWriter struct {
	Dir string
	// Width wraps sequence lines; 0 means DefaultWidth.
	Width int

	group   string
	with    *fastaFile
	without *fastaFile
	written map[string]int
}

// NewFilterWriter creates dir if needed.
func NewFilterWriter(dir string) (*FilterWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FilterWriter{Dir: dir, written: make(map[string]int)}, nil
}

// Visit writes one outcome. Groups must arrive one after another.
func (w *FilterWriter) Visit(d evaluate.Detail) error {
	if d.Group != w.group || w.with == nil {
		if err := w.open(d.Group); err != nil {
			return err
		}
	}
	if !d.Outcome.IsAccepted() {
		return nil
	}

	desc := fmt.Sprintf("length=%d orientation=%s", d.Outcome.Length, d.Outcome.Orientation)
	if d.Outcome.Reason != "" {
		desc += " reason=" + string(d.Outcome.Reason)
	}
	if amplicon := d.Outcome.AmpliconBases(d.Read.Bases); amplicon != "" {
		if err := w.with.write(d.Read.ID, desc, amplicon); err != nil {
			return err
		}
	}
	if insert := d.Outcome.InsertBases(d.Read.Bases); insert != "" {
		if err := w.without.write(d.Read.ID, desc, insert); err != nil {
			return err
		}
	}
	w.written[d.Group]++
	return nil
}

// Written returns the number of accepted reads written per group.
func (w *FilterWriter) Written() map[string]int {
	return w.written
}

func (w *FilterWriter) open(group string) error {
	if err := w.Close(); err != nil {
		return err
	}
	var err error
	if w.with, err = createFASTA(filepath.Join(w.Dir, group+WithPrimersSuffix), w.Width); err != nil {
		return err
	}
	if w.without, err = createFASTA(filepath.Join(w.Dir, group+WithoutPrimersSuffix), w.Width); err != nil {
		w.with.close()
		w.with = nil
		return err
	}
	w.group = group
	return nil
}

// Close flushes and closes the files of the current group.
func (w *FilterWriter) Close() error {
	var first error
	for _, f := range []*fastaFile{w.with, w.without} {
		if f == nil {
			continue
		}
		if err := f.close(); err != nil && first == nil {
			first = err
		}
	}
	w.with, w.without = nil, nil
	return first
}

type fastaFile struct {
	f   *os.File
	buf *bufio.Writer
	w   *fasta.Writer
}

func createFASTA(path string, width int) (*fastaFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriter(f)
	if width <= 0 {
		width = DefaultWidth
	}
	return &fastaFile{f: f, buf: buf, w: fasta.NewWriter(buf, width)}, nil
}

func (ff *fastaFile) write(id, desc, bases string) error {
	s := linear.NewSeq(id, alphabet.BytesToLetters([]byte(bases)), alphabet.DNAredundant)
	s.Desc = desc
	_, err := ff.w.Write(s)
	return err
}

func (ff *fastaFile) close() error {
	if err := ff.buf.Flush(); err != nil {
		ff.f.Close()
		return err
	}
	return ff.f.Close()
}
