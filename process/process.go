// Package process spawns and supervises one binary service child process.
//
// The child is started with fully piped stdin/stdout/stderr; it never
// inherits a terminal. Stdout is pumped to the owner as raw chunks, in order,
// from a single goroutine (the owner runs its line framer there). Stderr is
// never parsed as protocol; each line is handed to the owner for warning-level
// logging. When the process terminates, for any reason, the exit hook fires
// exactly once, after the final stdout chunk has been delivered.
//
// Supervision is deliberately minimal: no restart, no backoff. A dead process
// stays dead and the owner fails whatever was pending.
package process

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/smnsjas/go-binsvc/logging"
)

// Hooks receive the child's output and lifecycle notifications.
// Any hook may be nil.
type Hooks struct {
	// OnStdout is called with each raw stdout chunk, in read order, from a
	// single goroutine. The chunk is only valid for the duration of the call.
	OnStdout func(chunk []byte)
	// OnStderrLine is called with each stderr line, trailing newline removed.
	OnStderrLine func(line string)
	// OnExit is called exactly once after the process terminates and all
	// output has been delivered. err is nil on a clean zero exit, otherwise
	// it describes the exit code or signal.
	OnExit func(err error)
}

// Process is a live child process handle.
type Process struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	log   logging.Logger

	writeMu sync.Mutex
}

// Start spawns the binary at path with the given arguments and begins pumping
// its output. The returned handle is live; Kill terminates it.
func Start(path string, args []string, hooks Hooks, log logging.Logger) (*Process, error) {
	if log == nil {
		log = logging.Nop()
	}

	cmd := exec.Command(path, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start process: %w", err)
	}

	p := &Process{
		cmd:   cmd,
		stdin: stdin,
		log:   log,
	}

	var pumps sync.WaitGroup
	pumps.Add(2)
	go func() {
		defer pumps.Done()
		p.pumpStdout(stdout, hooks.OnStdout)
	}()
	go func() {
		defer pumps.Done()
		p.pumpStderr(stderr, hooks.OnStderrLine)
	}()

	go func() {
		// Both pipes must be drained before Wait; Wait closes them.
		pumps.Wait()
		err := cmd.Wait()
		if hooks.OnExit != nil {
			hooks.OnExit(exitError(err))
		}
	}()

	return p, nil
}

// Write sends one request line to the child's stdin.
// Writes are serialized; a write blocks when the OS pipe buffer is full and
// resumes as the child drains it.
func (p *Process) Write(b []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if _, err := p.stdin.Write(b); err != nil {
		return fmt.Errorf("write to process: %w", err)
	}
	return nil
}

// Kill terminates the process immediately. The exit hook still fires.
func (p *Process) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// PID returns the child's process id.
func (p *Process) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// pumpStdout delivers raw chunks until EOF.
func (p *Process) pumpStdout(r io.Reader, onChunk func([]byte)) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 && onChunk != nil {
			onChunk(buf[:n])
		}
		if err != nil {
			if err != io.EOF {
				p.log.Debug("stdout pump ended", "err", err)
			}
			return
		}
	}
}

// pumpStderr delivers whole lines until EOF.
func (p *Process) pumpStderr(r io.Reader, onLine func(string)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if onLine != nil {
			onLine(scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		p.log.Debug("stderr pump ended", "err", err)
	}
}

// exitError normalizes the result of Wait: nil for a clean exit, otherwise an
// error naming the exit code or terminating signal.
func exitError(err error) error {
	if err == nil {
		return nil
	}
	if exit, ok := err.(*exec.ExitError); ok {
		return fmt.Errorf("process exited: %s", exit.ProcessState)
	}
	return fmt.Errorf("process failed: %w", err)
}
