package process

import (
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test uses POSIX shell utilities")
	}
}

func TestRoundTripThroughCat(t *testing.T) {
	skipOnWindows(t)

	out := make(chan string, 16)
	exited := make(chan error, 1)

	p, err := Start("/bin/cat", nil, Hooks{
		OnStdout: func(chunk []byte) { out <- string(chunk) },
		OnExit:   func(err error) { exited <- err },
	}, nil)
	require.NoError(t, err)
	require.NotZero(t, p.PID())

	require.NoError(t, p.Write([]byte("hello\n")))

	select {
	case chunk := <-out:
		require.Contains(t, chunk, "hello")
	case <-time.After(5 * time.Second):
		t.Fatal("no stdout chunk received")
	}

	require.NoError(t, p.Kill())

	select {
	case err := <-exited:
		require.Error(t, err) // killed, not a clean exit
	case <-time.After(5 * time.Second):
		t.Fatal("exit hook never fired")
	}
}

func TestStderrGoesToLineHook(t *testing.T) {
	skipOnWindows(t)

	lines := make(chan string, 16)
	exited := make(chan error, 1)

	_, err := Start("/bin/sh", []string{"-c", "echo warning line >&2"}, Hooks{
		OnStderrLine: func(line string) { lines <- line },
		OnExit:       func(err error) { exited <- err },
	}, nil)
	require.NoError(t, err)

	select {
	case line := <-lines:
		require.Equal(t, "warning line", line)
	case <-time.After(5 * time.Second):
		t.Fatal("no stderr line received")
	}

	select {
	case err := <-exited:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("exit hook never fired")
	}
}

func TestNonZeroExitReported(t *testing.T) {
	skipOnWindows(t)

	exited := make(chan error, 1)
	_, err := Start("/bin/sh", []string{"-c", "exit 3"}, Hooks{
		OnExit: func(err error) { exited <- err },
	}, nil)
	require.NoError(t, err)

	select {
	case err := <-exited:
		require.Error(t, err)
		require.True(t, strings.Contains(err.Error(), "3"))
	case <-time.After(5 * time.Second):
		t.Fatal("exit hook never fired")
	}
}

func TestExitHookFiresAfterFinalOutput(t *testing.T) {
	skipOnWindows(t)

	events := make(chan string, 16)
	_, err := Start("/bin/sh", []string{"-c", "printf 'last\\n'"}, Hooks{
		OnStdout: func([]byte) { events <- "stdout" },
		OnExit:   func(error) { events <- "exit" },
	}, nil)
	require.NoError(t, err)

	var order []string
	for len(order) < 2 {
		select {
		case e := <-events:
			order = append(order, e)
		case <-time.After(5 * time.Second):
			t.Fatalf("incomplete event sequence: %v", order)
		}
	}
	require.Equal(t, []string{"stdout", "exit"}, order)
}

func TestStartMissingBinary(t *testing.T) {
	_, err := Start("/nonexistent/binary-service", nil, Hooks{}, nil)
	require.Error(t, err)
}
