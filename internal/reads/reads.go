// Package reads loads sequencing reads from FASTQ, FASTA and unaligned BAM
// files as restartable groups, one group per file.
package reads

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/io/seqio/fastq"
	"github.com/biogo/biogo/seq"
	"github.com/biogo/biogo/seq/linear"
	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"github.com/aria-lang/primerscan-go/internal/evaluate"
	"github.com/aria-lang/primerscan-go/internal/quality"
	"github.com/aria-lang/primerscan-go/internal/sequence"
)

// Format is a supported input file format.
type Format int

const (
	FASTQ Format = iota
	FASTA
	BAM
)

func (f Format) String() string {
	switch f {
	case FASTQ:
		return "fastq"
	case FASTA:
		return "fasta"
	case BAM:
		return "bam"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ErrUnsupportedFormat is returned for files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported read format")

var extensions = map[string]Format{
	".fastq": FASTQ,
	".fq":    FASTQ,
	".fasta": FASTA,
	".fa":    FASTA,
	".fna":   FASTA,
	".bam":   BAM,
}

// FormatOf detects the format from the file extension.
func FormatOf(path string) (Format, error) {
	if f, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
}

// File is a read file. Every call to Each reopens it.
type File struct {
	Path   string
	Format Format

	// name overrides the group name when two loaded files share a base name.
	name string
}

// Open checks that path exists and has a supported format.
func Open(path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &File{Path: path, Format: format}, nil
}

// Name returns the group name: the file name without its extension, made
// unique by Load when needed.
func (f *File) Name() string {
	if f.name != "" {
		return f.name
	}
	base := filepath.Base(f.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Each implements evaluate.Group. Records with an empty sequence are
// skipped.
func (f *File) Each(ctx context.Context, fn func(sequence.Read) error) error {
	fh, err := os.Open(f.Path)
	if err != nil {
		return err
	}
	defer fh.Close()

	switch f.Format {
	case FASTQ:
		template := linear.NewQSeq("", nil, alphabet.DNAredundant, alphabet.Sanger)
		return eachSeq(ctx, fastq.NewReader(bufio.NewReader(fh), template), fn)
	case FASTA:
		template := linear.NewSeq("", nil, alphabet.DNAredundant)
		return eachSeq(ctx, fasta.NewReader(bufio.NewReader(fh), template), fn)
	case BAM:
		return eachBAM(ctx, fh, fn)
	}
	return fmt.Errorf("%s: %w", f.Path, ErrUnsupportedFormat)
}

func eachSeq(ctx context.Context, r seqio.Reader, fn func(sequence.Read) error) error {
	sc := seqio.NewScanner(r)
	for sc.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		read, ok := toRead(sc.Seq())
		if !ok {
			continue
		}
		if err := fn(read); err != nil {
			return err
		}
	}
	return sc.Error()
}

func toRead(s seq.Sequence) (sequence.Read, bool) {
	switch s := s.(type) {
	case *linear.QSeq:
		if len(s.Seq) == 0 {
			return sequence.Read{}, false
		}
		bases := make([]byte, len(s.Seq))
		phred := make([]int, len(s.Seq))
		for i, ql := range s.Seq {
			bases[i] = byte(ql.L)
			phred[i] = int(ql.Q)
		}
		return sequence.RawRead(s.Name(), string(bases), scores(phred)), true
	case *linear.Seq:
		if len(s.Seq) == 0 {
			return sequence.Read{}, false
		}
		return sequence.RawRead(s.Name(), letters(s.Seq), nil), true
	}
	return sequence.Read{}, false
}

func letters(ls alphabet.Letters) string {
	b := make([]byte, len(ls))
	for i, l := range ls {
		b[i] = byte(l)
	}
	return string(b)
}

// scores drops quality strings that fall outside the Phred range rather
// than failing the whole file.
func scores(phred []int) *quality.Scores {
	q, err := quality.New(phred)
	if err != nil {
		return nil
	}
	return q
}

func eachBAM(ctx context.Context, r io.Reader, fn func(sequence.Read) error) error {
	br, err := bam.NewReader(r, 1)
	if err != nil {
		return err
	}
	defer br.Close()

	for {
		rec, err := br.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if rec.Flags&(sam.Secondary|sam.Supplementary) != 0 || rec.Seq.Length == 0 {
			continue
		}

		read := sequence.RawRead(rec.Name, string(rec.Seq.Expand()), bamQuality(rec.Qual))
		if rec.Flags&sam.Reverse != 0 {
			read = sequence.ReverseComplementRead(read)
		}
		if err := fn(read); err != nil {
			return err
		}
	}
}

// bamQuality converts BAM qualities; 0xff marks a missing quality string.
func bamQuality(qual []byte) *quality.Scores {
	if len(qual) == 0 || qual[0] == 0xff {
		return nil
	}
	phred := make([]int, len(qual))
	for i, q := range qual {
		phred[i] = int(q)
	}
	return scores(phred)
}

// Dir returns one group per read file directly inside path, sorted by name.
func Dir(path string) ([]evaluate.Group, error) {
	files, err := dirFiles(path)
	if err != nil {
		return nil, err
	}
	return groupsOf(files), nil
}

func dirFiles(path string) ([]*File, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := FormatOf(e.Name()); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	files := make([]*File, 0, len(names))
	for _, name := range names {
		f, err := Open(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// Load accepts files and directories and returns their groups in argument
// order. Group names are unique: a repeated name gets a _2, _3, ... suffix
// in load order, so outputs keyed by group never overwrite each other.
func Load(paths ...string) ([]evaluate.Group, error) {
	var files []*File
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			fs, err := dirFiles(p)
			if err != nil {
				return nil, err
			}
			files = append(files, fs...)
			continue
		}
		f, err := Open(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no read files found in %s", strings.Join(paths, ", "))
	}
	return groupsOf(files), nil
}

// groupsOf renames files whose names repeat and returns them as groups.
func groupsOf(files []*File) []evaluate.Group {
	reserved := make(map[string]bool, len(files))
	for _, f := range files {
		reserved[f.Name()] = true
	}
	used := make(map[string]bool, len(files))
	groups := make([]evaluate.Group, 0, len(files))
	for _, f := range files {
		name := f.Name()
		if used[name] {
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s_%d", name, n)
				if !used[candidate] && !reserved[candidate] {
					name = candidate
					break
				}
			}
			f.name = name
		}
		used[name] = true
		groups = append(groups, f)
	}
	return groups
}

// LoadReferences reads reference inserts from a FASTA file or from a text
// file holding one sequence per line. Blank lines are skipped and bases are
// upper-cased.
func LoadReferences(path string) ([]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	var refs []string
	if format, err := FormatOf(path); err == nil && format == FASTA {
		sc := seqio.NewScanner(fasta.NewReader(bufio.NewReader(fh), linear.NewSeq("", nil, alphabet.DNAredundant)))
		for sc.Next() {
			if s, ok := sc.Seq().(*linear.Seq); ok && len(s.Seq) > 0 {
				refs = append(refs, strings.ToUpper(letters(s.Seq)))
			}
		}
		return refs, sc.Error()
	}

	sc := bufio.NewScanner(fh)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		refs = append(refs, strings.ToUpper(line))
	}
	return refs, sc.Err()
}
