// Package console provides blocking, line-based terminal I/O.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Console reads lines from an input stream and writes to an output stream.
//
// One goroutine reads the input for the lifetime of the Console, so a read
// abandoned on cancellation never drops the line it was waiting for: that
// line is returned by the next read.
type Console struct {
	in  *bufio.Reader
	out io.Writer

	start  sync.Once
	lines  chan string
	err    error // set before lines is closed
	lastCR bool
}

func New(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:    bufio.NewReader(in),
		out:   out,
		lines: make(chan string),
	}
}

// Write sends p to the output stream.
func (c *Console) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

// Prompt writes prompt and blocks until a full line is read or ctx is done.
// The line terminator (LF, CR, or CRLF) is stripped; surrounding spaces are
// kept. io.EOF is returned only when no characters were read.
func (c *Console) Prompt(ctx context.Context, prompt string) (string, error) {
	if prompt != "" {
		if _, err := fmt.Fprint(c.out, prompt); err != nil {
			return "", fmt.Errorf("write prompt: %w", err)
		}
	}
	return c.ReadLine(ctx)
}

// ReadLine blocks until a full line is read or ctx is done. Once the input
// fails, every later call returns the same error.
func (c *Console) ReadLine(ctx context.Context) (string, error) {
	c.start.Do(func() { go c.pump() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			return "", c.err
		}
		return line, nil
	}
}

func (c *Console) pump() {
	defer close(c.lines)
	for {
		line, err := c.readLine()
		if err != nil {
			c.err = err
			return
		}
		c.lines <- line
	}
}

func (c *Console) readLine() (string, error) {
	var b strings.Builder
	for {
		r, _, err := c.in.ReadRune()
		if err != nil {
			if errors.Is(err, io.EOF) && b.Len() > 0 {
				return b.String(), nil
			}
			return "", err
		}

		// A CRLF split across reads: the LF ends the line the CR already ended.
		if r == '\n' && c.lastCR && b.Len() == 0 {
			c.lastCR = false
			continue
		}
		c.lastCR = r == '\r'

		switch r {
		case '\r', '\n':
			return b.String(), nil
		default:
			b.WriteRune(r)
		}
	}
}
