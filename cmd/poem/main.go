package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"github.com/ent0n29/markovchat/internal/corpus"
	"github.com/ent0n29/markovchat/internal/markov"
	"github.com/ent0n29/markovchat/internal/poem"
)

type options struct {
	template   string
	output     string
	verbose    bool
	seed       uint64
	corpusFile string
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "poem: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "poem: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("poem", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.template, "t", "", "template file (built-in template when empty)")
	fs.StringVar(&opts.output, "o", "", "write the result to this file instead of stdout")
	fs.BoolVar(&opts.verbose, "v", false, "report every generating directive")
	fs.Uint64Var(&opts.seed, "seed", 0, "random seed for reproducible output (0 = random)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: poem [flags] corpus.json")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() != 1 {
		return options{}, fmt.Errorf("expected exactly one corpus file")
	}
	opts.corpusFile = fs.Arg(0)
	return opts, nil
}

func run(opts options, stdout, stderr io.Writer) error {
	src := poem.DefaultTemplate
	if opts.template != "" {
		data, err := os.ReadFile(opts.template)
		if err != nil {
			return fmt.Errorf("read template: %w", err)
		}
		src = string(data)
	}
	tpl, err := poem.Parse(src)
	if err != nil {
		return err
	}

	c, err := corpus.ReadFile(opts.corpusFile)
	if err != nil {
		return err
	}
	chain, err := markov.NewChain(c)
	if err != nil {
		return err
	}

	var rng *rand.Rand
	if opts.seed != 0 {
		rng = rand.New(rand.NewPCG(opts.seed, opts.seed))
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	engine := poem.NewEngine(chain, rng)
	if opts.verbose {
		engine.OnGenerate = func(words int) {
			fmt.Fprintf(stderr, "Generating %d words.\n", words)
		}
	}

	text, err := engine.Run(tpl)
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err = io.WriteString(stdout, text)
		return err
	}
	if err := os.WriteFile(opts.output, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
