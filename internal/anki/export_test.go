package anki

import "context"

func (l *Launcher) SetProcessHooks(
	start func(name string, args ...string) (int, error),
	terminate func(ctx context.Context, pid int, name string) (int, error),
) {
	l.start = start
	l.terminate = terminate
}
