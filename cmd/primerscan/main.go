// Command primerscan classifies sequencing reads by their flanking primers
// and tunes the alignment scores used to find them.
//
// Usage:
//
//	primerscan [command] [flags]
//
// Commands:
//
//	run        Filter or search, as selected by the mode setting
//	filter     Split reads into with/without-primer FASTA files
//	search     Tune the alignment scores over a read set
//	classify   Print the outcome of every read
//	align      Align a primer inside a read
//	version    Show version information
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatalf("%v", err)
	}
}
