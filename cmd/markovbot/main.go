package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ent0n29/markovchat/internal/bot"
	"github.com/ent0n29/markovchat/internal/corpus"
	"github.com/ent0n29/markovchat/internal/markov"
)

type options struct {
	url        string
	name       string
	words      int
	corpusFile string
	retries    int
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "markovbot: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "markovbot: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("markovbot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.url, "url", "ws://127.0.0.1:1984/v1/relay/ws", "relay websocket URL")
	fs.StringVar(&opts.name, "name", "John", "name the bot signs its messages with")
	fs.IntVar(&opts.words, "words", 5, "words per reply")
	fs.IntVar(&opts.retries, "retries", 0, "give up after this many failed connection attempts (0 = never)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: markovbot [flags] corpus.json")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if fs.NArg() != 1 {
		return options{}, fmt.Errorf("expected exactly one corpus file")
	}
	opts.corpusFile = fs.Arg(0)
	opts.url = strings.TrimSpace(opts.url)
	if opts.url == "" {
		return options{}, fmt.Errorf("url is required")
	}
	if opts.words <= 0 {
		return options{}, fmt.Errorf("words must be > 0")
	}
	if opts.retries < 0 {
		return options{}, fmt.Errorf("retries must be >= 0")
	}
	return opts, nil
}

func run(opts options) error {
	c, err := corpus.ReadFile(opts.corpusFile)
	if err != nil {
		return err
	}
	chain, err := markov.NewChain(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := bot.New(bot.Config{
		URL:         opts.url,
		Name:        opts.name,
		Words:       opts.words,
		BaseBackoff: 500 * time.Millisecond,
		MaxBackoff:  15 * time.Second,
		MaxAttempts: opts.retries,
	}, chain, nil)

	log.Printf("bot %s connecting to %s (keys=%d)", opts.name, opts.url, chain.Len())
	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
