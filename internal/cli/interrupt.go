package cli

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// InterruptNotice tells the user what happened when a command's context is cancelled
// (by SIGINT or SIGTERM in main) before the command finishes.
type InterruptNotice struct {
	out         io.Writer
	stop        chan struct{}
	done        chan struct{}
	title       string
	hints       []string
	once        sync.Once
	mu          sync.Mutex
	interrupted bool
}

// WatchInterrupt starts watching ctx. The notice is printed at most once, and never
// after Stop.
func WatchInterrupt(ctx context.Context, out io.Writer, title string, hints ...string) *InterruptNotice {
	n := &InterruptNotice{
		out:   out,
		title: title,
		hints: hints,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	go func() {
		defer close(n.done)
		select {
		case <-n.stop:
		case <-ctx.Done():
			n.mu.Lock()
			n.interrupted = true
			n.mu.Unlock()
			n.print()
		}
	}()

	return n
}

// Stop ends the watch and waits for any notice in flight to be written. It is safe to
// call more than once.
func (n *InterruptNotice) Stop() {
	n.once.Do(func() { close(n.stop) })
	<-n.done
}

// Interrupted reports whether the context ended while being watched.
func (n *InterruptNotice) Interrupted() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.interrupted
}

func (n *InterruptNotice) print() {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(FormatWarning(n.title))
	for _, hint := range n.hints {
		b.WriteString("\n")
		b.WriteString(FormatInfo(hint))
	}
	b.WriteString("\n")

	if _, err := io.WriteString(n.out, b.String()); err != nil {
		slog.Debug("Failed to write interrupt notice", "error", err)
	}
}
