package console_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/tailored-agentic-units/hitl/console"
)

func TestPrompt_LineTerminators(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"line feed", "approve\n", "approve"},
		{"carriage return", "approve\r", "approve"},
		{"crlf", "approve\r\n", "approve"},
		{"eof without terminator", "approve", "approve"},
		{"keeps inner spaces", "  too expensive \n", "  too expensive "},
		{"empty line", "\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := console.New(strings.NewReader(tt.input), &out)

			got, err := c.Prompt(context.Background(), "Approve this action? ")
			if err != nil {
				t.Fatalf("Prompt returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if out.String() != "Approve this action? " {
				t.Errorf("prompt output = %q", out.String())
			}
		})
	}
}

func TestReadLine_Sequential(t *testing.T) {
	c := console.New(strings.NewReader("edit\r\nParis weather\nexit\n"), io.Discard)

	for _, want := range []string{"edit", "Paris weather", "exit"} {
		got, err := c.ReadLine(context.Background())
		if err != nil {
			t.Fatalf("ReadLine failed: %v", err)
		}
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}

	if _, err := c.ReadLine(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("got %v, want io.EOF", err)
	}
}

func TestWrite(t *testing.T) {
	var out bytes.Buffer
	c := console.New(strings.NewReader(""), &out)

	if _, err := c.Write([]byte("streamed")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if out.String() != "streamed" {
		t.Errorf("got %q", out.String())
	}
}

// chunkReader returns one chunk per Read, like a terminal delivering input
// as it is typed.
type chunkReader struct {
	chunks []string
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	if r.chunks[0] == "" {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func TestReadLine_SplitCRLF(t *testing.T) {
	c := console.New(&chunkReader{chunks: []string{"reject\r", "\ntoo expensive\r", "\n", "\n"}}, io.Discard)

	for _, want := range []string{"reject", "too expensive", ""} {
		got, err := c.ReadLine(context.Background())
		if err != nil {
			t.Fatalf("ReadLine failed: %v", err)
		}
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}

	if _, err := c.ReadLine(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("got %v, want io.EOF", err)
	}
}

func TestReadLine_Cancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	c := console.New(pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	if _, err := c.ReadLine(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}

	go func() { _, _ = pw.Write([]byte("approve\n")) }()

	got, err := c.ReadLine(context.Background())
	if err != nil {
		t.Fatalf("ReadLine failed: %v", err)
	}
	if got != "approve" {
		t.Errorf("got %q, want the line typed after cancellation", got)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("input/output error")
}

func TestReadLine_ErrorIsSticky(t *testing.T) {
	c := console.New(failingReader{}, io.Discard)

	for range 3 {
		if _, err := c.ReadLine(context.Background()); err == nil || err.Error() != "input/output error" {
			t.Fatalf("got %v, want the read error", err)
		}
	}
}
