package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when a prompt is abandoned because ctx ended.
var ErrInputCancelled = errors.New("input canceled")

// LineReader reads answers to prompts without blocking past context cancellation.
// A read abandoned by cancellation keeps its goroutine until the line arrives, and
// the next read waits for it.
type LineReader struct {
	in *bufio.Reader
	mu sync.Mutex
}

// NewLineReader wraps r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{in: bufio.NewReader(r)}
}

// ReadLine returns the next line with surrounding whitespace removed. A final line
// without a newline is returned with a nil error.
func (r *LineReader) ReadLine(ctx context.Context) (string, error) {
	type line struct {
		err  error
		text string
	}
	done := make(chan line, 1)

	go func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		text, err := r.in.ReadString('\n')
		if errors.Is(err, io.EOF) && text != "" {
			err = nil
		}
		done <- line{text: strings.TrimSpace(text), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case l := <-done:
		return l.text, l.err
	}
}

// Confirm asks a yes/no question. Anything other than y or yes, including end of
// input, counts as no.
func (r *LineReader) Confirm(ctx context.Context, out io.Writer, question string) (bool, error) {
	if _, err := fmt.Fprint(out, FormatPrompt(question+" [y/N]")); err != nil {
		return false, err
	}

	answer, err := r.ReadLine(ctx)
	switch {
	case errors.Is(err, io.EOF):
		return false, nil
	case err != nil:
		return false, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
