// Package instances tracks the habitquest processes sharing one store.
package instances

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/habitquest/internal/logger"
)

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
)

const pidExt = ".pid"

type Instance struct {
	PID        int
	Executable string
	// Command is what the process registered as, e.g. "watch".
	Command string
}

func pidDir(configDir string) string {
	return filepath.Join(configDir, "instances")
}

// Register records the current process under configDir. The returned func
// removes the record and is safe to call more than once.
func Register(configDir, command string) (func(), error) {
	dir := pidDir(configDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create instances directory: %w", err)
	}

	pid := getpidFunc()
	path := filepath.Join(dir, strconv.Itoa(pid)+pidExt)
	if err := os.WriteFile(path, []byte(command), 0600); err != nil {
		return nil, fmt.Errorf("failed to write pid file: %w", err)
	}

	return func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove pid file", "path", path, "error", err)
		}
	}, nil
}

// List returns the registered processes that are still alive, ordered by
// PID. Records of dead processes are removed.
func List(configDir string) ([]Instance, error) {
	dir := pidDir(configDir)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []Instance
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, pidExt) {
			continue
		}
		path := filepath.Join(dir, name)
		pid, err := strconv.Atoi(strings.TrimSuffix(name, pidExt))
		if err != nil {
			continue
		}

		proc, err := findProcessFunc(pid)
		if err != nil || proc == nil {
			logger.Debug("removing stale pid file", "pid", pid)
			_ = os.Remove(path)
			continue
		}

		command, _ := os.ReadFile(path)
		out = append(out, Instance{PID: pid, Executable: proc.Executable(), Command: string(command)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out, nil
}

// Others is List without the current process.
func Others(configDir string) ([]Instance, error) {
	all, err := List(configDir)
	if err != nil {
		return nil, err
	}
	self := getpidFunc()
	others := all[:0]
	for _, inst := range all {
		if inst.PID != self {
			others = append(others, inst)
		}
	}
	return others, nil
}
