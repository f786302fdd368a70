package instances

import (
	"os"
	"path/filepath"
	"testing"

	ps "github.com/mitchellh/go-ps"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int           { return m.pid }
func (m *mockProcess) PPid() int          { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

func fakeProcesses(t *testing.T, alive map[int]string) {
	t.Helper()
	old := findProcessFunc
	t.Cleanup(func() { findProcessFunc = old })
	findProcessFunc = func(pid int) (ps.Process, error) {
		exe, ok := alive[pid]
		if !ok {
			return nil, nil
		}
		return &mockProcess{pid: pid, executable: exe}, nil
	}
}

func asPID(t *testing.T, pid int) {
	t.Helper()
	old := getpidFunc
	t.Cleanup(func() { getpidFunc = old })
	getpidFunc = func() int { return pid }
}

func TestRegisterAndList(t *testing.T) {
	dir := t.TempDir()
	fakeProcesses(t, map[int]string{100: "habitquest", 200: "habitquest"})

	asPID(t, 200)
	unregister200, err := Register(dir, "watch")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	asPID(t, 100)
	if _, err := Register(dir, "status"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, err := List(dir)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 || got[0].PID != 100 || got[1].PID != 200 {
		t.Fatalf("List() = %+v, want PIDs 100 and 200", got)
	}
	if got[1].Command != "watch" || got[1].Executable != "habitquest" {
		t.Errorf("List()[1] = %+v", got[1])
	}

	others, err := Others(dir)
	if err != nil {
		t.Fatalf("Others() error = %v", err)
	}
	if len(others) != 1 || others[0].PID != 200 {
		t.Errorf("Others() = %+v, want only PID 200", others)
	}

	unregister200()
	unregister200()
	got, err = List(dir)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("List() after unregister = %+v", got)
	}
}

func TestListRemovesStaleFiles(t *testing.T) {
	dir := t.TempDir()
	fakeProcesses(t, map[int]string{})

	asPID(t, 300)
	if _, err := Register(dir, "status"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, err := List(dir)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List() = %+v, want none", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "instances", "300.pid")); !os.IsNotExist(err) {
		t.Error("stale pid file was not removed")
	}
}

func TestListWithoutDirectory(t *testing.T) {
	got, err := List(t.TempDir())
	if err != nil || got != nil {
		t.Errorf("List() = %v, %v; want nil, nil", got, err)
	}
}
