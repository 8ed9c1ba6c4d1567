package pulse

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

func TestPushBackRoundTrip(t *testing.T) {
	r, w := mustPipe(t)

	data := "Lorem ipsum dolor sit."
	if n, err := w.Write([]byte(data)); err != nil || n != len(data) {
		t.Fatalf("short write: %d, %v", n, err)
	}

	loop := New()
	state := 1
	PushBackReader(loop, int(r.Fd()), 5, func(data []byte, pushBack PushBack) error {
		switch state {
		case 1:
			if string(data) != "Lorem" {
				t.Fatalf("state 1: %q", data)
			}
		case 2:
			if string(data) != " ipsu" {
				t.Fatalf("state 2: %q", data)
			}
			// Push the whole block back: it must come again, verbatim, in
			// front of the next read.
			pushBack(data)
		case 3:
			if string(data) != " ipsum dol" {
				t.Fatalf("state 3: %q", data)
			}
			pushBack([]byte("d"))
			pushBack([]byte("ol"))
		case 4:
			if string(data) != "dolor si" {
				t.Fatalf("state 4: %q", data)
			}
		case 5:
			if string(data) != "t." {
				t.Fatalf("state 5: %q", data)
			}
			loop.Stop()
		default:
			t.Fatalf("unexpected state %d", state)
		}
		state++
		return nil
	})

	if err := loop.Run(); err != nil {
		t.Fatal(err)
	}
	if state != 6 {
		t.Fatalf("stopped in state %d", state)
	}
}

// pacedWriter writes one chunk per timer tick so that each chunk arrives as
// its own block, then stops the loop one tick after the last chunk.
func pacedWriter(t *testing.T, loop *Loop, w *os.File, chunks []string) {
	t.Helper()
	i := 0
	_, err := loop.AddTimer(5*time.Millisecond, true, func() {
		if i > len(chunks) {
			loop.Stop()
			return
		}
		if i == len(chunks) {
			i++
			return
		}
		if n, err := w.Write([]byte(chunks[i])); err != nil || n != len(chunks[i]) {
			t.Fatalf("short write: %d, %v", n, err)
		}
		i++
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestLineReaderSplitAcrossBlocks(t *testing.T) {
	r, w := mustPipe(t)
	loop := New()

	pacedWriter(t, loop, w, []string{"ab", "c\ndef\n", "gh"})

	var lines []string
	LineReader(loop, int(r.Fd()), 64, func(line []byte) error {
		lines = append(lines, string(line))
		return nil
	})

	if err := loop.Run(); err != nil {
		t.Fatal(err)
	}

	want := []string{"abc\n", "def\n"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %v", len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
	// "gh" stays buffered as a pending partial line.
}

func TestLineReaderSmallBlocks(t *testing.T) {
	r, w := mustPipe(t)
	loop := New()

	pacedWriter(t, loop, w, []string{
		"Lorem ipsum\n",
		"dolor\nsit\namet, ",
		"consectetur",
		" adipiscing ",
		"elit.\nAliquam magna dolor, ", // no newline at the end
	})

	var lines []string
	LineReader(loop, int(r.Fd()), 5, func(line []byte) error {
		lines = append(lines, string(line))
		return nil
	})

	if err := loop.Run(); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"Lorem ipsum\n",
		"dolor\n",
		"sit\n",
		"amet, consectetur adipiscing elit.\n",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %v", len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestLineReaderMultipleLinesPerBlock(t *testing.T) {
	r, w := mustPipe(t)
	loop := New()

	if _, err := w.Write([]byte("one\ntwo\nthree\n")); err != nil {
		t.Fatal(err)
	}

	var lines []string
	LineReader(loop, int(r.Fd()), 255, func(line []byte) error {
		lines = append(lines, string(line))
		if len(lines) == 3 {
			loop.Stop()
		}
		return nil
	})

	if err := loop.Run(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal([]byte(lines[0]+lines[1]+lines[2]), []byte("one\ntwo\nthree\n")) {
		t.Fatalf("unexpected lines %v", lines)
	}
}

// Lines over a pseudo-terminal, the way a serial device delivers them.
func TestLineReaderPty(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() {
		master.Close()
		slave.Close()
	})

	loop := New()
	var lines []string
	LineReader(loop, int(slave.Fd()), 255, func(line []byte) error {
		lines = append(lines, string(line))
		if len(lines) == 2 {
			loop.Stop()
		}
		return nil
	})

	_, err = master.Write([]byte("ping\n"))
	require.NoError(t, err)
	_, err = master.Write([]byte("pong\n"))
	require.NoError(t, err)

	require.NoError(t, loop.Run())
	require.Equal(t, []string{"ping\n", "pong\n"}, lines)
}
