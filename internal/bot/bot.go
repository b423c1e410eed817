package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ent0n29/markovchat/internal/markov"
	"github.com/ent0n29/markovchat/internal/protocol"
	"github.com/ent0n29/markovchat/internal/reliability"
)

// Config controls a chat bot.
type Config struct {
	// URL is the relay websocket endpoint, e.g. ws://127.0.0.1:1984/v1/relay/ws.
	URL      string
	Name     string
	Words    int
	Greeting string

	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	// MaxAttempts bounds consecutive failed connection attempts; 0 retries forever.
	MaxAttempts int
}

// Bot answers every seed it receives from the relay with generated text.
type Bot struct {
	cfg   Config
	chain *markov.Chain
	rng   *rand.Rand
}

func New(cfg Config, chain *markov.Chain, rng *rand.Rand) *Bot {
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = "John"
	}
	if cfg.Words <= 0 {
		cfg.Words = 5
	}
	if cfg.Greeting == "" {
		cfg.Greeting = "yo"
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 250 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 10 * time.Second
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Bot{cfg: cfg, chain: chain, rng: rng}
}

// Reply generates the bot's answer to seed.
func (b *Bot) Reply(seed string) (string, error) {
	text, err := b.chain.Walk(b.rng, seed, true, b.cfg.Words)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("[%s]: %s", b.cfg.Name, markov.Capitalize(text)), nil
}

// Run connects to the relay and chats until ctx is done, the relay closes the
// connection normally, or reconnecting fails for good.
func (b *Bot) Run(ctx context.Context) error {
	target, err := b.dialURL()
	if err != nil {
		return err
	}
	attempt := 0
	for {
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if resp != nil && !reliability.IsRetryableHTTPStatus(resp.StatusCode) {
				return fmt.Errorf("relay refused connection: %s", resp.Status)
			}
			log.Printf("bot %s: connect failed: %v", b.cfg.Name, err)
		} else {
			attempt = 0
			err = b.chat(ctx, conn)
			_ = conn.Close()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && !reliability.IsRetryableCloseCode(closeErr.Code) {
				log.Printf("bot %s: relay closed connection: %v", b.cfg.Name, closeErr)
				return nil
			}
			log.Printf("bot %s: connection lost: %v", b.cfg.Name, err)
		}

		attempt++
		if b.cfg.MaxAttempts > 0 && attempt >= b.cfg.MaxAttempts {
			return fmt.Errorf("relay unreachable after %d attempts", attempt)
		}
		wait := reliability.ExponentialBackoff(attempt-1, b.cfg.BaseBackoff, b.cfg.MaxBackoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// dialURL adds the bot name to the relay URL unless one is already set.
func (b *Bot) dialURL() (string, error) {
	u, err := url.Parse(b.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("relay url: %w", err)
	}
	q := u.Query()
	if q.Get("name") == "" {
		q.Set("name", b.cfg.Name)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (b *Bot) chat(ctx context.Context, conn *websocket.Conn) error {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := b.say(conn, b.cfg.Greeting); err != nil {
		return err
	}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		msg, err := protocol.ParseServerMessage(data)
		if err != nil {
			log.Printf("bot %s: ignoring message: %v", b.cfg.Name, err)
			continue
		}
		switch m := msg.(type) {
		case protocol.Seed:
			log.Printf("bot %s: received seed %q from %s", b.cfg.Name, m.Word, m.From)
			reply, err := b.Reply(m.Word)
			if err != nil {
				return err
			}
			if err := b.say(conn, reply); err != nil {
				return err
			}
		case protocol.ErrorEvent:
			log.Printf("bot %s: relay error %s: %s", b.cfg.Name, m.Code, m.Detail)
		}
	}
}

func (b *Bot) say(conn *websocket.Conn, text string) error {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(protocol.ChatMessage{
		Type: protocol.TypeChatMessage,
		Text: text,
		From: b.cfg.Name,
		TSMs: time.Now().UnixMilli(),
	})
}
