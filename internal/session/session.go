// Package session drives a Swift REPL process: it sends statements in
// balanced batches, waits for the prompt, and interprets what came back.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"replctl/internal/code"
	"replctl/internal/output"
	"replctl/internal/profiler"
	"replctl/internal/screen"
	"replctl/internal/system"
)

var (
	// ErrCrashed is returned when the REPL output stream ends mid-run.
	ErrCrashed = errors.New("repl crashed")
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("session closed")
	// ErrOutOfSync is returned when output of an interrupted run did not
	// settle on a prompt within Options.ResyncTimeout.
	ErrOutOfSync = errors.New("repl output out of sync after an interrupted run")
)

// InitCommands run once per session. They provide the JSON bridge used by
// Variables.Get and Variables.Set.
const InitCommands = `
import Foundation

func _deserializeObject<T: Decodable>(_ path: String) throws -> T {
    let url = URL(fileURLWithPath: path)
    let data = try Data(contentsOf: url)
    return try JSONDecoder().decode(T.self, from: data)
}

func _serializeObject<T: Encodable>(_ object: T, to path: String) throws {
    let encoder = JSONEncoder()
    encoder.outputFormatting = [.prettyPrinted, .sortedKeys]
    let data = try encoder.encode(object)
    try data.write(to: URL(fileURLWithPath: path))
}
`

// ReplError reports a statement the REPL rejected.
type ReplError struct {
	Line   string
	Output string
}

func (e *ReplError) Error() string {
	return fmt.Sprintf("error in swift code: %q", e.Line)
}

// Options configures a session.
type Options struct {
	// Command overrides the REPL command line.
	Command []string
	// PackageDir selects `swift run --repl` inside a Swift package.
	PackageDir  string
	Cols        int
	Rows        int
	ReadTimeout time.Duration
	// ResyncTimeout bounds how long a run waits for the leftover output of
	// an interrupted run.
	ResyncTimeout time.Duration
	BatchSize     int
	Render        output.RenderOptions
	// Stdout receives rendered output of verbose runs.
	Stdout io.Writer
}

func (o Options) withDefaults() Options {
	if o.Cols <= 0 {
		o.Cols = 200
	}
	if o.Rows <= 0 {
		o.Rows = 50
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 50 * time.Millisecond
	}
	if o.ResyncTimeout <= 0 {
		o.ResyncTimeout = 5 * time.Second
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	return o
}

func (o Options) command() []string {
	if len(o.Command) > 0 {
		return o.Command
	}
	if o.PackageDir != "" {
		return []string{"swift", "run", "--repl"}
	}
	return []string{"swift", "repl"}
}

// RunOptions controls a single Run.
type RunOptions struct {
	// Autoreload prepends the reload files to the prompt.
	Autoreload bool
	// Verbose writes the rendered output to Options.Stdout.
	Verbose bool
}

// Result is the interpreted output of one Run.
type Result struct {
	Output    string                    `json:"output"`
	Rendered  string                    `json:"rendered"`
	Variables map[string]output.Binding `json:"variables"`
}

// Session owns one REPL process. Runs are serialized.
type Session struct {
	opts Options
	proc Process

	chunks   chan []byte
	quit     chan struct{}
	pumpDone chan struct{}

	mu     sync.Mutex
	closed bool
	reload []string
	last   string
	// dirty is set when a run was interrupted before its prompt came back;
	// pending holds what that run had read of its last batch.
	dirty   bool
	pending string

	vars *Variables
}

// New starts the REPL and runs InitCommands.
func New(ctx context.Context, o Options) (*Session, error) {
	p, err := StartProcess(o)
	if err != nil {
		return nil, err
	}
	return NewWithProcess(ctx, p, o)
}

// NewWithProcess wraps an already running process.
func NewWithProcess(ctx context.Context, p Process, o Options) (*Session, error) {
	s := &Session{
		opts:     o.withDefaults(),
		proc:     p,
		chunks:   make(chan []byte, 64),
		quit:     make(chan struct{}),
		pumpDone: make(chan struct{}),
	}
	s.vars = &Variables{s: s, m: map[string]output.Binding{}}
	go s.pump()
	if _, err := s.Run(ctx, InitCommands, RunOptions{}); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("init repl: %w", err)
	}
	system.Logger.Info("repl ready", "command", strings.Join(s.opts.command(), " "))
	return s, nil
}

func (s *Session) pump() {
	defer close(s.pumpDone)
	defer close(s.chunks)
	buf := make([]byte, 8192)
	for {
		n, err := s.proc.Read(buf)
		if n > 0 {
			b := append([]byte(nil), buf[:n]...)
			select {
			case s.chunks <- b:
			case <-s.quit:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// Variables returns the variable registry.
func (s *Session) Variables() *Variables { return s.vars }

// Output returns the cleaned output of the last run.
func (s *Session) Output() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Run sends prompt to the REPL and interprets the output. A REPL error
// aborts the run with a *ReplError.
func (s *Session) Run(ctx context.Context, prompt string, ro RunOptions) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if err := s.resync(ctx); err != nil {
		return nil, err
	}

	if ro.Autoreload && len(s.reload) > 0 {
		inc, err := code.FilesContent(s.reload)
		if err != nil {
			return nil, err
		}
		prompt = inc + "\n" + output.EndOfInclude + "\n" + prompt
	}

	var raw strings.Builder
	for _, batch := range BatchPrompt(prompt, s.opts.BatchSize) {
		system.Logger.Debug("sending batch", "lines", strings.Count(batch, "\n")+1)
		if _, err := io.WriteString(s.proc, batch+"\n"); err != nil {
			return nil, fmt.Errorf("write to repl: %w", err)
		}
		if err := s.waitReady(ctx, &raw); err != nil {
			return nil, err
		}
	}

	out := screen.Clean(raw.String())
	s.last = out
	if line, ok := output.SearchForError(out); ok {
		if ro.Verbose {
			s.print(out)
		}
		return nil, &ReplError{Line: line, Output: out}
	}

	rendered, err := output.Render(out, s.opts.Render)
	if err != nil {
		return nil, err
	}
	if ro.Verbose {
		s.print(rendered)
	}
	vars := output.FindVariables(out)
	s.vars.update(vars)
	return &Result{Output: out, Rendered: rendered, Variables: vars}, nil
}

func (s *Session) print(text string) {
	if s.opts.Stdout != nil {
		fmt.Fprintln(s.opts.Stdout, text)
	}
}

// waitReady collects the output of one batch. An interrupted wait leaves
// the session dirty so that the next run discards the late output.
func (s *Session) waitReady(ctx context.Context, raw *strings.Builder) error {
	var batch strings.Builder
	err := s.collect(ctx, &batch, nil)
	raw.WriteString(batch.String())
	if err != nil && ctx.Err() != nil {
		s.dirty = true
		s.pending = batch.String()
	}
	return err
}

// resync drops output left over from an interrupted run.
func (s *Session) resync(ctx context.Context) error {
	if !s.dirty {
		return nil
	}
	var late strings.Builder
	late.WriteString(s.pending)
	limit := time.NewTimer(s.opts.ResyncTimeout)
	defer limit.Stop()
	err := s.collect(ctx, &late, limit.C)
	s.pending = late.String()
	if err != nil {
		return err
	}
	system.Logger.Debug("discarded output of interrupted run", "bytes", late.Len())
	s.dirty = false
	s.pending = ""
	return nil
}

// collect reads into buf until the stream has been idle for ReadTimeout
// and the screen ends in an input prompt. A fired limit yields ErrOutOfSync.
func (s *Session) collect(ctx context.Context, buf *strings.Builder, limit <-chan time.Time) error {
	timer := time.NewTimer(s.opts.ReadTimeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-limit:
			return ErrOutOfSync
		case b, ok := <-s.chunks:
			if !ok {
				return fmt.Errorf("%w: did you run async code? consider `try runSync { try await yourAsyncFunction() }`", ErrCrashed)
			}
			buf.Write(b)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.opts.ReadTimeout)
		case <-timer.C:
			if buf.Len() > 0 && output.PromptReady(screen.Clean(buf.String())) {
				return nil
			}
			timer.Reset(s.opts.ReadTimeout)
		}
	}
}

// AddReloadFile registers a source file that autoreload runs prepend.
func (s *Session) AddReloadFile(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reload file: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("reload file %s: not a regular file", path)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.reload {
		if p == path {
			return nil
		}
	}
	s.reload = append(s.reload, path)
	return nil
}

// ClearReloadFiles forgets every reload file.
func (s *Session) ClearReloadFiles() {
	s.mu.Lock()
	s.reload = nil
	s.mu.Unlock()
}

// ReloadFiles returns the registered reload files in insertion order.
func (s *Session) ReloadFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.reload...)
}

// LineProfile instruments function from sourcePath, runs it together with
// prompt and returns the parsed timing report.
func (s *Session) LineProfile(ctx context.Context, prompt, function, sourcePath string, ro RunOptions) (*Result, profiler.Report, error) {
	src, err := code.FileContent(sourcePath)
	if err != nil {
		return nil, profiler.Report{}, err
	}
	inst, err := profiler.InstrumentSource(function, src)
	if err != nil {
		return nil, profiler.Report{}, err
	}
	res, err := s.Run(ctx, inst+"\n"+prompt, ro)
	if err != nil {
		return nil, profiler.Report{}, err
	}
	rep, err := profiler.ParseReport(res.Output)
	if err != nil {
		return res, profiler.Report{}, fmt.Errorf("profile %s: %w", function, err)
	}
	return res, rep, nil
}

// Close quits the REPL and releases the process.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	_, _ = io.WriteString(s.proc, ":quit\n")
	close(s.quit)
	err := s.proc.Close()
	<-s.pumpDone
	return err
}
