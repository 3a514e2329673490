//go:build cpuprof

package main

import (
	"log/slog"
	"os"
	"runtime/pprof"
)

func init() {
	hooks = append(hooks, &cpuprof{})
}

// cpuprof profiles the CPU for the whole workload, into cpu.prof.
type cpuprof struct {
	f      *os.File
	logger *slog.Logger
}

func (c *cpuprof) OnStart(logger *slog.Logger) error {
	c.logger = logger.With(slog.String("hook", "cpuprof"))

	f, err := os.Create("cpu.prof")
	if err != nil {
		return err
	}
	c.f = f

	c.logger.Info("starting CPU profiling", slog.String("file", f.Name()))
	return pprof.StartCPUProfile(c.f)
}

func (c *cpuprof) OnEnd() error {
	c.logger.Info("stopping CPU profiling")
	pprof.StopCPUProfile()

	return c.f.Close()
}
