package anki

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/kpauljoseph/annotanki/internal/retry"
	"github.com/kpauljoseph/annotanki/pkg/logger"
)

// Prober reports whether AnkiConnect answers.
type Prober interface {
	CheckConnection(ctx context.Context) error
}

// Launcher starts the Anki desktop app when AnkiConnect is not reachable
// and terminates it once the run is over.
type Launcher struct {
	prober      Prober
	command     []string
	processName string
	startup     retry.Policy
	logger      *logger.Logger

	// start and terminate are swapped out in tests.
	start     func(name string, args ...string) (int, error)
	terminate func(ctx context.Context, pid int, name string) (int, error)

	startedPID int
}

func NewLauncher(prober Prober, command []string, processName string, startup retry.Policy, logger *logger.Logger) *Launcher {
	return &Launcher{
		prober:      prober,
		command:     command,
		processName: processName,
		startup:     startup,
		logger:      logger,
		start:       startProcess,
		terminate:   terminateProcess,
	}
}

// EnsureRunning returns once AnkiConnect answers. If the first probe fails
// the configured command is launched and probed until the startup timeout.
func (l *Launcher) EnsureRunning(ctx context.Context) error {
	if err := l.prober.CheckConnection(ctx); err == nil {
		l.logger.Info("Anki is already running.")
		return nil
	}

	if len(l.command) == 0 {
		return fmt.Errorf("anki is not running and no launch command is configured")
	}

	l.logger.Info("Anki is not running. Opening Anki...")
	pid, err := l.start(l.command[0], l.command[1:]...)
	if err != nil {
		return fmt.Errorf("failed to launch %q: %w", strings.Join(l.command, " "), err)
	}
	l.startedPID = pid
	l.logger.Debug("Started Anki (PID: %d)", pid)

	if err := retry.Until(ctx, l.startup, l.prober.CheckConnection); err != nil {
		return fmt.Errorf("anki did not become ready: %w", err)
	}

	l.logger.Info("Anki is ready.")
	return nil
}

// Close terminates the Anki process this launcher started or, failing
// that, the first running process whose name matches. It is not an error
// when no Anki process is found.
func (l *Launcher) Close(ctx context.Context) error {
	pid, err := l.terminate(ctx, l.startedPID, l.processName)
	if err != nil {
		return fmt.Errorf("failed to close anki: %w", err)
	}
	if pid == 0 {
		l.logger.Debug("No running Anki process found")
		return nil
	}

	l.logger.Info("Closing Anki (PID: %d)...", pid)
	l.startedPID = 0
	return nil
}

func startProcess(name string, args ...string) (int, error) {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	// Reap the child when it exits so it does not linger as a zombie.
	go cmd.Wait()
	return pid, nil
}

func terminateProcess(ctx context.Context, pid int, name string) (int, error) {
	if pid != 0 {
		p, err := process.NewProcessWithContext(ctx, int32(pid))
		if err == nil {
			if running, _ := p.IsRunningWithContext(ctx); running {
				return pid, p.TerminateWithContext(ctx)
			}
		}
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, err
	}

	for _, p := range procs {
		pname, err := p.NameWithContext(ctx)
		if err != nil || pname != name {
			continue
		}
		return int(p.Pid), p.TerminateWithContext(ctx)
	}

	return 0, nil
}

// WaitForSync gives Anki time to finish a background AnkiWeb sync before
// the process is terminated.
func WaitForSync(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
