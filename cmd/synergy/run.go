package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lmittmann/tint"

	"github.com/sakif/keyword-synergy/internal/client"
)

func run(ctx context.Context, cfg *Config, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	level := slog.LevelWarn
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))

	channel, err := client.NewWSChannel(cfg.server, logger)
	if err != nil {
		return err
	}
	session := client.NewSession(client.NewAPI(cfg.server, nil), channel, clockwork.NewRealClock(), logger)
	defer session.Close()

	if err := session.Begin(ctx, client.BeginOptions{
		Name:     cfg.name,
		RoomID:   cfg.room,
		RoomName: cfg.createRoom,
	}); err != nil {
		return err
	}
	if err := session.Sync(ctx); err != nil {
		return err
	}

	p := newPrinter(out, session.Store().Snapshot())
	session.Store().OnChange(p.onChange)

	p.welcome(session.Store().Snapshot())
	return repl(ctx, session, p, in)
}

func repl(ctx context.Context, session *client.Session, p *printer, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		p.prompt()
		if !scanner.Scan() {
			return scanner.Err()
		}

		cmd, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		switch cmd {
		case "":
		case "add":
			if _, err := session.Submit(ctx, arg); err != nil {
				p.errorf("add failed: %v", err)
			}
		case "draw":
			result, err := session.Draw(ctx)
			if err != nil {
				p.errorf("draw failed: %v", err)
				continue
			}
			p.printf("drawn: %s + %s (you have %s)\n", result.KeywordA, result.KeywordB, client.DrawDuration)
		case "keywords":
			p.keywords(session.Store().Snapshot())
		case "history":
			p.history(session.Store().Snapshot())
		case "status":
			p.status(session.Store().Snapshot())
		case "quit", "exit":
			return nil
		default:
			p.errorf("unknown command %q (add, draw, keywords, history, status, quit)", cmd)
		}
	}
}

// printer writes pushed changes as they arrive. It remembers which keywords
// and draws it has already shown so every item is printed once.
type printer struct {
	mu           sync.Mutex
	out          io.Writer
	seenKeywords map[string]bool
	seenHistory  map[string]bool
	connected    bool
	timeLeft     int
}

func newPrinter(out io.Writer, initial client.State) *printer {
	p := &printer{
		out:          out,
		seenKeywords: make(map[string]bool),
		seenHistory:  make(map[string]bool),
		connected:    initial.Connected,
		timeLeft:     initial.TimeLeft,
	}
	for _, kw := range initial.Keywords {
		p.seenKeywords[kw.ID] = true
	}
	for _, h := range initial.History {
		p.seenHistory[h.ID] = true
	}
	return p
}

func (p *printer) onChange(st client.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, kw := range st.Keywords {
		if !p.seenKeywords[kw.ID] {
			p.seenKeywords[kw.ID] = true
			fmt.Fprintf(p.out, "\n+ %s\n", kw.Word)
		}
	}
	// History is newest first; print new entries oldest first.
	for i := len(st.History) - 1; i >= 0; i-- {
		h := st.History[i]
		if !p.seenHistory[h.ID] {
			p.seenHistory[h.ID] = true
			fmt.Fprintf(p.out, "\n* draw: %s + %s\n", h.KeywordA, h.KeywordB)
		}
	}
	if st.Connected != p.connected {
		p.connected = st.Connected
		if st.Connected {
			fmt.Fprintln(p.out, "\n(live)")
		} else {
			fmt.Fprintln(p.out, "\n(disconnected)")
		}
	}
	// The countdown is announced on whole minutes and when it runs out.
	if st.TimeLeft != p.timeLeft {
		switch {
		case st.TimeLeft > 0 && st.TimeLeft%60 == 0:
			fmt.Fprintf(p.out, "\n%d:00 left\n", st.TimeLeft/60)
		case st.TimeLeft == 0:
			fmt.Fprintln(p.out, "\ntime is up")
		}
		p.timeLeft = st.TimeLeft
	}
}

func (p *printer) welcome(st client.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "hello %s", st.User.Name)
	if st.Room != nil {
		fmt.Fprintf(p.out, ", you are in room %q (id %s)", st.Room.Name, st.Room.ID)
	}
	fmt.Fprintf(p.out, "\n%d keywords in the pool, %d past draws\n", len(st.Keywords), len(st.History))
}

func (p *printer) keywords(st client.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(st.Keywords) == 0 {
		fmt.Fprintln(p.out, "the pool is empty")
		return
	}
	for _, kw := range st.Keywords {
		fmt.Fprintf(p.out, "  %s\n", kw.Word)
	}
}

func (p *printer) history(st client.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(st.History) == 0 {
		fmt.Fprintln(p.out, "no draws yet")
		return
	}
	for _, h := range st.History {
		fmt.Fprintf(p.out, "  %s  %s + %s\n", h.CreatedAt.Local().Format(time.Kitchen), h.KeywordA, h.KeywordB)
	}
}

func (p *printer) status(st client.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	conn := "disconnected"
	if st.Connected {
		conn = "live"
	}
	fmt.Fprintf(p.out, "connection: %s\n", conn)
	if st.DrawResult != nil {
		fmt.Fprintf(p.out, "current draw: %s + %s\n", st.DrawResult.KeywordA, st.DrawResult.KeywordB)
	}
	if st.TimeLeft > 0 {
		fmt.Fprintf(p.out, "time left: %s\n", time.Duration(st.TimeLeft)*time.Second)
	}
}

func (p *printer) prompt() {
	p.printf("> ")
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func (p *printer) errorf(format string, args ...any) {
	p.printf("error: "+format+"\n", args...)
}
