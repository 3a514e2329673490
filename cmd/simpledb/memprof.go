//go:build memprof

package main

import (
	"log/slog"
	"os"
	"runtime/pprof"
)

func init() {
	hooks = append(hooks, &memprof{})
}

// memprof writes a heap profile to mem.prof once the workload is over.
type memprof struct {
	f      *os.File
	logger *slog.Logger
}

func (m *memprof) OnStart(logger *slog.Logger) error {
	m.logger = logger.With(slog.String("hook", "memprof"))

	f, err := os.Create("mem.prof")
	if err != nil {
		return err
	}
	m.f = f

	return nil
}

func (m *memprof) OnEnd() error {
	defer m.f.Close()

	if err := pprof.WriteHeapProfile(m.f); err != nil {
		return err
	}

	m.logger.Info("memory profile generated", slog.String("file", m.f.Name()))
	return nil
}
