package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/passbi/transport_catalogue/internal/config"
	"github.com/passbi/transport_catalogue/internal/jsonio"
	"github.com/passbi/transport_catalogue/internal/routing"
)

func main() {
	inputPath := flag.String("in", "", "Request document path (default: stdin)")
	outputPath := flag.String("out", "", "Response path (default: stdout)")
	precompute := flag.Int("precompute-limit", config.DefaultPrecomputeLimit, "Precompute shortest paths from every stop when the network has at most this many stops (memory ~32*N^2 bytes)")
	workers := flag.Int("workers", 0, "Goroutines used for precomputation (0 = one per CPU)")
	flag.Parse()

	// Responses go to stdout; keep progress logs on stderr without timestamps
	log.SetFlags(0)
	log.SetOutput(os.Stderr)

	var in io.Reader = os.Stdin
	if *inputPath != "" {
		f, err := os.Open(*inputPath)
		if err != nil {
			log.Fatalf("❌ Failed to open request document: %v", err)
		}
		defer f.Close()
		in = f
	}

	var out io.Writer = os.Stdout
	if *outputPath != "" {
		f, err := os.Create(*outputPath)
		if err != nil {
			log.Fatalf("❌ Failed to create response file: %v", err)
		}
		defer f.Close()
		out = f
	}

	writer := bufio.NewWriter(out)
	opts := routing.Options{PrecomputeLimit: *precompute, Workers: *workers}
	if err := jsonio.Process(bufio.NewReader(in), writer, opts); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	if err := writer.Flush(); err != nil {
		log.Fatalf("❌ Failed to write responses: %v", err)
	}
}
