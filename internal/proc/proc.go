// Package proc wraps child-process handling behind a narrow capability
// interface so supervision logic stays testable with fake processes.
package proc

import (
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Process is a live child process. Implementations must be safe for
// concurrent use.
type Process interface {
	// PID of the underlying OS process.
	PID() int
	// Alive reports whether the process has not exited yet.
	Alive() bool
	// Stop terminates the process: graceful signal first, escalating to a
	// kill when it does not exit within grace. Always reaps the child.
	Stop(grace time.Duration) error
}

// Launcher starts the proxy client against a config file.
type Launcher interface {
	Launch(configPath string) (Process, error)
}

// ExecLauncher launches the real client binary as `<bin> -c <config>`.
type ExecLauncher struct {
	Bin string
}

func (l *ExecLauncher) Launch(configPath string) (Process, error) {
	cmd := exec.Command(l.Bin, "-c", configPath)
	tail := &tailBuffer{}
	cmd.Stdout = io.Discard
	cmd.Stderr = tail
	if err := cmd.Start(); err != nil {
		return nil, launchError{bin: l.Bin, err: err}
	}
	p := &execProcess{cmd: cmd, tail: tail, done: make(chan struct{})}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

type execProcess struct {
	cmd     *exec.Cmd
	tail    *tailBuffer
	done    chan struct{}
	waitErr error
}

func (p *execProcess) PID() int { return p.cmd.Process.Pid }

func (p *execProcess) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *execProcess) Stop(grace time.Duration) error {
	if !p.Alive() {
		return nil
	}
	_ = p.cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-p.done:
		return nil
	case <-time.After(grace):
	}
	_ = p.cmd.Process.Kill()
	<-p.done
	return nil
}

// StderrTail returns the last captured stderr bytes, for log context when
// a child exits unexpectedly.
func (p *execProcess) StderrTail() string { return p.tail.String() }

const tailLimit = 4096

// tailBuffer keeps only the trailing tailLimit bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (t *tailBuffer) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, b...)
	if len(t.buf) > tailLimit {
		t.buf = t.buf[len(t.buf)-tailLimit:]
	}
	return len(b), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

type launchError struct {
	bin string
	err error
}

func (e launchError) Error() string { return "start " + e.bin + ": " + e.err.Error() }
func (e launchError) Unwrap() error { return e.err }

// IsLaunchError reports whether err means the child could not be started at
// all (as opposed to starting and then dying).
func IsLaunchError(err error) bool {
	_, ok := err.(launchError)
	return ok
}
