package testutil

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// FakeREPL is a scripted stand-in for the REPL process. Every write is
// handed to Respond and the returned text is what the next reads see.
type FakeREPL struct {
	Respond func(input string) string

	outR *io.PipeReader
	outW *io.PipeWriter

	inputs chan string
	done   chan struct{}

	mu     sync.Mutex
	closed bool
	seen   []string
}

// NewFakeREPL starts a fake that answers with respond.
func NewFakeREPL(respond func(input string) string) *FakeREPL {
	r, w := io.Pipe()
	f := &FakeREPL{
		Respond: respond,
		outR:    r,
		outW:    w,
		inputs:  make(chan string, 16),
		done:    make(chan struct{}),
	}
	go f.loop()
	return f
}

func (f *FakeREPL) loop() {
	defer close(f.done)
	for in := range f.inputs {
		reply := f.Respond(in)
		if reply == "" {
			continue
		}
		if _, err := io.WriteString(f.outW, reply); err != nil {
			return
		}
	}
}

func (f *FakeREPL) Read(p []byte) (int, error) { return f.outR.Read(p) }

func (f *FakeREPL) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, io.ErrClosedPipe
	}
	f.seen = append(f.seen, string(p))
	f.inputs <- string(p)
	return len(p), nil
}

// Crash ends the output stream as if the process died.
func (f *FakeREPL) Crash() {
	_ = f.outW.Close()
}

func (f *FakeREPL) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	close(f.inputs)
	f.mu.Unlock()
	_ = f.outR.Close()
	<-f.done
	return nil
}

// Inputs returns everything written so far.
func (f *FakeREPL) Inputs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}

// Prompt renders the way the Swift REPL redraws its input prompt number n.
func Prompt(n int) string {
	return fmt.Sprintf("\x1b[1G\x1b[J %d>  \x1b[1G %d> \x1b[%dG", n, n, len(fmt.Sprint(n))+4)
}

// Echo renders the echo of an input batch as numbered continuation lines
// starting at n.
func Echo(batch string, n int) string {
	var b strings.Builder
	for i, ln := range strings.Split(strings.TrimSuffix(batch, "\n"), "\n") {
		fmt.Fprintf(&b, " %d. %s\r\n", n+i, ln)
	}
	return b.String()
}
