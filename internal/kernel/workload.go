//go:build linux

package kernel

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// workload binds a process record to a real OS child (C8). The
// scheduler's "context switch" is, for a bound record, literally
// resuming or pausing this child with SIGCONT/SIGSTOP — a real
// subprocess can't trap into this kernel on a syscall the way the
// original's processes do, so tick-driven preemption (Config.
// TickQuantum) is the only way a RUNNING workload ever gives up the
// CPU involuntarily. Grounded on processmgr.process's pipe/supervise/
// Close shape; Enter()/readiness-marker handling is dropped since
// nothing in this domain needs a readiness barrier.
type workload struct {
	log    *zap.Logger
	logBuf *LogBuffer

	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser

	done      chan struct{}
	closeOnce sync.Once
	exitErr   error

	started atomic.Bool
	cmdPID  atomic.Int64
}

// newWorkload constructs (but does not start) a workload wrapping argv.
func newWorkload(log *zap.Logger, logBuf *LogBuffer, argv []string) (*workload, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("workload: empty argv")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("workload: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		_ = stdout.Close()
		return nil, fmt.Errorf("workload: stderr pipe: %w", err)
	}

	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}

	return &workload{
		log:    log,
		logBuf: logBuf,
		cmd:    cmd,
		stdout: stdout,
		stderr: stderr,
		done:   make(chan struct{}),
	}, nil
}

// spawn starts the child stopped-on-entry: the process is launched and
// immediately SIGSTOP'd, so it only ever runs while the scheduler has
// it selected RUNNING. Returns the real OS pid.
func (w *workload) spawn() (int, error) {
	if err := w.cmd.Start(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSpawnFailed, err)
	}
	pid := w.cmd.Process.Pid
	w.started.Store(true)
	w.cmdPID.Store(int64(pid))

	if err := syscall.Kill(-pid, syscall.SIGSTOP); err != nil {
		w.log.Warn("workload: initial SIGSTOP failed", zap.Int("cmd_pid", pid), zap.Error(err))
	}

	go w.drain(w.stdout)
	go w.drain(w.stderr)
	go w.reap()

	return pid, nil
}

// drain copies one pipe's lines into the shared log buffer until EOF.
func (w *workload) drain(r io.ReadCloser) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		w.logBuf.Append(sc.Text())
	}
}

// reap performs the single blocking Wait() that collects the child's
// exit status, then closes done.
func (w *workload) reap() {
	err := w.cmd.Wait()
	w.exitErr = err

	if err != nil {
		var eerr *exec.ExitError
		if errors.As(err, &eerr) {
			w.log.Info("workload exited",
				zap.Int64("cmd_pid", w.cmdPID.Load()),
				zap.Int("exit_code", eerr.ExitCode()))
		} else {
			w.log.Error("workload wait failed", zap.Error(err))
		}
	} else {
		w.log.Info("workload exited cleanly", zap.Int64("cmd_pid", w.cmdPID.Load()))
	}
	close(w.done)
}

// resume is the "switch to" half of a context switch: SIGCONT wakes
// the stopped child so it runs until the next tick or a voluntary
// yield.
func (w *workload) resume() {
	if !w.started.Load() {
		return
	}
	_ = syscall.Kill(-int(w.cmdPID.Load()), syscall.SIGCONT)
}

// pause is the "switch from" half: SIGSTOP freezes the child exactly
// where it is, standing in for saving register state in a real kernel.
func (w *workload) pause() {
	if !w.started.Load() {
		return
	}
	_ = syscall.Kill(-int(w.cmdPID.Load()), syscall.SIGSTOP)
}

// exited reports whether the child has already been reaped.
func (w *workload) exited() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// waitExited blocks until the child is reaped.
func (w *workload) waitExited() { <-w.done }

// kill escalates SIGTERM, then SIGKILL after a grace period, mirroring
// processmgr.process.Close's deterministic teardown. Always resumes the
// child first (SIGTERM/SIGKILL are ignored by a stopped process).
func (w *workload) kill() {
	w.closeOnce.Do(func() {
		if !w.started.Load() {
			return
		}
		pid := int(w.cmdPID.Load())

		_ = syscall.Kill(-pid, syscall.SIGCONT)
		_ = syscall.Kill(-pid, syscall.SIGTERM)

		timer := time.NewTimer(3 * time.Second)
		defer timer.Stop()

		select {
		case <-w.done:
		case <-timer.C:
			_ = syscall.Kill(-pid, syscall.SIGKILL)
		}
	})
}
