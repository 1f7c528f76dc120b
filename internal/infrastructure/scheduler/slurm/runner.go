package slurm

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"time"

	"github.com/turtacn/af3-portal/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/af3-portal/pkg/errors"
)

// Result is the captured output of one scheduler invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// CommandRunner submits a script to the scheduler.  A non-nil error is
// returned when the command could not run or exited non-zero; Result is
// populated in both cases.
type CommandRunner interface {
	Submit(ctx context.Context, workDir, script string) (*Result, error)
}

// ExecRunner runs the scheduler binary (sbatch by default) as a subprocess.
type ExecRunner struct {
	command string
	args    []string
	timeout time.Duration
	logger  logging.Logger
}

// NewExecRunner returns a runner for command with extra args placed before
// the script path.
func NewExecRunner(command string, args []string, timeout time.Duration, log logging.Logger) *ExecRunner {
	if command == "" {
		command = "sbatch"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ExecRunner{command: command, args: args, timeout: timeout, logger: log}
}

// Submit runs "<command> <args...> <script>" inside workDir.
func (r *ExecRunner) Submit(ctx context.Context, workDir, script string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	argv := append(append([]string{}, r.args...), script)
	cmd := exec.CommandContext(ctx, r.command, argv...)
	cmd.Dir = workDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() == context.DeadlineExceeded:
			res.ExitCode = -1
			return res, errors.Wrap(err, errors.ErrCodeTimeout, "scheduler timed out").WithDetail("command=" + r.command)
		case stderrors.As(err, &exitErr):
			res.ExitCode = exitErr.ExitCode()
		default:
			res.ExitCode = -1
		}
		r.logger.Warn("scheduler command failed",
			logging.String("command", r.command),
			logging.Int("exit_code", res.ExitCode),
			logging.Err(err))
		return res, errors.Wrap(err, errors.ErrCodeSchedulerFailed, "scheduler command failed").WithDetail("command=" + r.command)
	}

	r.logger.Debug("scheduler command finished",
		logging.String("command", r.command),
		logging.Duration("duration", res.Duration))
	return res, nil
}
