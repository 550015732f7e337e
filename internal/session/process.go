package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/charmbracelet/x/xpty"
)

// Process is the REPL byte stream. Reads return what the terminal shows,
// writes are typed input.
type Process interface {
	io.ReadWriteCloser
}

type ptyProcess struct {
	pty xpty.Pty
	cmd *exec.Cmd
}

// StartProcess launches the REPL on a fresh pseudo-terminal.
func StartProcess(o Options) (Process, error) {
	o = o.withDefaults()
	argv := o.command()
	p, err := xpty.NewPty(o.Cols, o.Rows)
	if err != nil {
		return nil, fmt.Errorf("open pty: %w", err)
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = o.PackageDir
	cmd.Env = scrubbedEnv()
	if err := p.Start(cmd); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("start %v: %w", argv, err)
	}
	return &ptyProcess{pty: p, cmd: cmd}, nil
}

// scrubbedEnv keeps the REPL free of user shell customisation; TERM=dumb
// limits the line editor to the few sequences the screen package handles.
func scrubbedEnv() []string {
	return []string{
		"PATH=" + os.Getenv("PATH"),
		"SHELL=" + os.Getenv("SHELL"),
		"TERM=dumb",
	}
}

func (p *ptyProcess) Read(b []byte) (int, error)  { return p.pty.Read(b) }
func (p *ptyProcess) Write(b []byte) (int, error) { return p.pty.Write(b) }

func (p *ptyProcess) Close() error {
	err := p.pty.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = xpty.WaitProcess(ctx, p.cmd)
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
		<-done
	}
	return err
}
