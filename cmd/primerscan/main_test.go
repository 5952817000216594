package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const libraryRead = "ACGTACGTTTTTGGCCAATT"

var testFlags = []string{
	"--forward", "ACGTACGT", "--reverse", "AATT",
	"--length", "20", "--tolerance", "0", "--length-of", "span",
	"--match=1", "--mismatch=-1", "--gap-open=-1", "--gap-extend=-1",
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func writeReads(t *testing.T) string {
	t.Helper()
	qual := strings.Repeat("I", len(libraryRead))
	fastq := "@a\n" + libraryRead + "\n+\n" + qual + "\n" +
		"@b\n" + strings.Repeat("G", len(libraryRead)) + "\n+\n" + qual + "\n"
	path := filepath.Join(t.TempDir(), "reads.fastq")
	require.NoError(t, os.WriteFile(path, []byte(fastq), 0o644))
	return path
}

func TestAlignCommand(t *testing.T) {
	args := append([]string{"align", "--anchor", "end"}, testFlags...)
	out, err := execute(t, append(args, libraryRead, "AATT")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Read range: [16, 20)")
	assert.Contains(t, out, "CIGAR: 4=")
}

func TestFilterCommand(t *testing.T) {
	reads := writeReads(t)
	dir := filepath.Join(t.TempDir(), "out")

	args := append([]string{"filter", "-o", dir}, testFlags...)
	out, err := execute(t, append(args, reads)...)
	require.NoError(t, err)
	assert.Contains(t, out, "accepted:  1 (50.00%)")

	assert.FileExists(t, filepath.Join(dir, "reads_with_primers.fasta"))
	assert.FileExists(t, filepath.Join(dir, "reads_wo_primers.fasta"))
	assert.FileExists(t, filepath.Join(dir, SummaryFile))
}

func TestFilterCommandRepeatedFileNames(t *testing.T) {
	first := writeReads(t)
	second := writeReads(t)
	dir := filepath.Join(t.TempDir(), "out")

	args := append([]string{"filter", "-o", dir}, testFlags...)
	out, err := execute(t, append(args, first, second)...)
	require.NoError(t, err)
	assert.Contains(t, out, "== reads\n")
	assert.Contains(t, out, "== reads_2\n")

	for _, group := range []string{"reads", "reads_2"} {
		with, err := os.ReadFile(filepath.Join(dir, group+"_with_primers.fasta"))
		require.NoError(t, err)
		assert.Contains(t, string(with), ">a ")
	}
}

func TestSearchCommand(t *testing.T) {
	reads := writeReads(t)
	dir := filepath.Join(t.TempDir(), "tuning")

	args := append([]string{"search", "-o", dir, "--budget", "4", "--warmup", "2", "--surrogate", "random"}, testFlags...)
	out, err := execute(t, append(args, reads)...)
	require.NoError(t, err)
	assert.Contains(t, out, "best loss")

	for _, name := range []string{TrialsFile, RunFile, BestFile} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
}

func TestMissingInput(t *testing.T) {
	_, err := execute(t, "classify")
	assert.Error(t, err)
}
