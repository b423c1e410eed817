package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ent0n29/markovchat/internal/corpus"
	"github.com/ent0n29/markovchat/internal/store"
)

type options struct {
	speaker string
	output  string
	verbose bool
	dbURL   string
	name    string
	inputs  []string
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rjwstat: %v\n", err)
		os.Exit(2)
	}
	if err := run(context.Background(), opts, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "rjwstat: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("rjwstat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.speaker, "c", corpus.DefaultSpeaker, "speaker label whose lines are collected")
	fs.StringVar(&opts.output, "o", "", "write the corpus to this file instead of stdout")
	fs.BoolVar(&opts.verbose, "v", false, "print a dot per line and the line and word totals")
	fs.StringVar(&opts.dbURL, "store", "", "also save the corpus into this PostgreSQL database")
	fs.StringVar(&opts.name, "name", "default", "corpus name used with -store")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: rjwstat [flags] [file ...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	opts.inputs = fs.Args()
	opts.dbURL = strings.TrimSpace(opts.dbURL)
	if opts.dbURL != "" && strings.TrimSpace(opts.name) == "" {
		return options{}, fmt.Errorf("name is required with -store")
	}
	return opts, nil
}

func run(ctx context.Context, opts options, stdin io.Reader, stdout, stderr io.Writer) error {
	src, closeAll, err := openInputs(opts.inputs, stdin)
	if err != nil {
		return err
	}
	defer closeAll()

	b := corpus.NewBuilder(opts.speaker)
	if opts.verbose {
		b.OnLine = func() { fmt.Fprint(stderr, ".") }
	}
	c, stats, err := b.Build(src)
	if err != nil {
		return err
	}
	if opts.verbose {
		fmt.Fprintln(stderr)
		fmt.Fprintf(stderr, "Total lines found: %d\n", stats.Lines)
		fmt.Fprintf(stderr, "Total words found: %d\n", stats.Words)
	}

	if opts.dbURL != "" {
		st, err := store.NewPostgresStore(ctx, opts.dbURL)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.SaveCorpus(ctx, opts.name, c); err != nil {
			return err
		}
	}

	if opts.output == "" {
		return corpus.Write(stdout, c, true)
	}
	return writeFile(opts.output, c)
}

func writeFile(path string, c corpus.Corpus) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := corpus.Write(f, c, true); err != nil {
		_ = f.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

// openInputs concatenates the named files, or returns stdin when there are
// none. A blank line is inserted between files so a block never spans two.
func openInputs(paths []string, stdin io.Reader) (io.Reader, func(), error) {
	if len(paths) == 0 {
		return stdin, func() {}, nil
	}
	var (
		readers []io.Reader
		files   []*os.File
	)
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	for i, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("open input: %w", err)
		}
		files = append(files, f)
		if i > 0 {
			readers = append(readers, strings.NewReader("\n\n"))
		}
		readers = append(readers, f)
	}
	return io.MultiReader(readers...), closeAll, nil
}
