package remote

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/process"
)

// Result of a finished command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner runs external commands to completion.
// It is an interface so tests can fake docker.
type Runner interface {
	// Run blocks until the command exits. A non-zero exit code is reported
	// in [Result], not as an error. The error is only set when the command
	// couldn't be started or [ctx] was cancelled.
	Run(ctx context.Context, dir string, name string, args ...string) (Result, error)
}

var _ Runner = ExecRunner{}

// ExecRunner runs commands as child processes.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) (Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return Result{}, errors.Wrapf(err, "couldn't start %q", name)
	}

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
	}()

	var err error
	select {
	case <-ctx.Done():
		_ = killDescendants(int32(cmd.Process.Pid))
		_ = cmd.Process.Signal(os.Kill)
		<-exited
		return Result{}, ctx.Err()
	case err = <-exited:
	}

	res := Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return res, err
	}
	return res, nil
}

// killDescendants kills every process below [pid]. docker run leaves the
// container attached through child processes of the client.
func killDescendants(pid int32) error {
	procs, err := process.Processes()
	if err != nil {
		return err
	}
	for _, proc := range procs {
		ppid, err := proc.Ppid()
		if err != nil {
			continue
		}
		if ppid != pid {
			continue
		}
		if err := killDescendants(proc.Pid); err != nil {
			return err
		}
		_ = proc.Kill()
	}
	return nil
}
