package guard

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wasmlet/wasmlet/internal/errors"
)

const (
	// RecordFileName is the name of the singleton PID record.
	RecordFileName = "wasmlet_server.pid"

	// DefaultKillTimeout is how long to wait for a displaced
	// instance to die after the termination signal.
	DefaultKillTimeout = 5 * time.Second

	killPollInterval = 50 * time.Millisecond
)

// DefaultRecordPath returns the fixed well-known record location.
func DefaultRecordPath() string {
	return filepath.Join(os.TempDir(), RecordFileName)
}

// Guard enforces the single-instance contract via a persisted PID record.
//
// The record is never removed on graceful shutdown; a stale record is
// cleaned up by the next invocation's liveness check.
type Guard struct {
	// Path is the record file location.
	Path string

	// KillTimeout bounds the wait for a displaced instance to exit.
	KillTimeout time.Duration
}

// New creates a Guard for the given record path.
// An empty path selects the default location.
func New(path string) *Guard {
	if path == "" {
		path = DefaultRecordPath()
	}
	return &Guard{
		Path:        path,
		KillTimeout: DefaultKillTimeout,
	}
}

// ReadRecord returns the recorded PID.
// ok is false when no record exists or its content is not a PID;
// a garbage record counts as stale, not as an error.
func (g *Guard) ReadRecord() (pid int, ok bool, err error) {
	data, err := os.ReadFile(g.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, errors.New("E301").Wrap(err)
	}

	pid, perr := strconv.Atoi(strings.TrimSpace(string(data)))
	if perr != nil || pid <= 0 {
		return 0, false, nil
	}
	return pid, true, nil
}

// EnsureSingleInstance makes this process the only server instance.
//
// A missing record succeeds immediately. A stale record (dead or
// unparseable PID) is removed. A live record's process receives a
// forced termination signal; failure to kill it is fatal to start-up.
func (g *Guard) EnsureSingleInstance() error {
	pid, ok, err := g.ReadRecord()
	if err != nil {
		return err
	}

	if !ok {
		// No record, or garbage content left behind. Either way
		// nothing is running; clear whatever is there.
		return g.removeRecord()
	}

	if !processAlive(pid) {
		return g.removeRecord()
	}

	if err := terminateProcess(pid); err != nil {
		return errors.New("E302").
			WithDetailf("Process %d did not accept the termination signal.", pid).
			Wrap(err)
	}

	if !g.waitForExit(pid) {
		return errors.New("E302").
			WithDetailf("Process %d is still alive after %s.", pid, g.KillTimeout)
	}

	return g.removeRecord()
}

// Publish records the given PID as the running instance,
// overwriting any prior content. This is the only write path.
func (g *Guard) Publish(pid int) error {
	if err := os.WriteFile(g.Path, []byte(strconv.Itoa(pid)), 0644); err != nil {
		return errors.New("E301").
			WithDetailf("Could not write the instance record at %s.", g.Path).
			Wrap(err)
	}
	return nil
}

// StopRunning terminates the recorded instance, if one is alive.
// It reports whether a live process was actually terminated.
// Stale records are removed silently.
func (g *Guard) StopRunning() (bool, error) {
	pid, ok, err := g.ReadRecord()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, g.removeRecord()
	}

	if !processAlive(pid) {
		return false, g.removeRecord()
	}

	if err := terminateProcess(pid); err != nil {
		return false, errors.New("E302").Wrap(err)
	}
	if !g.waitForExit(pid) {
		return false, errors.New("E302").
			WithDetailf("Process %d is still alive after %s.", pid, g.KillTimeout)
	}
	return true, g.removeRecord()
}

// waitForExit polls liveness until the process dies or the timeout lapses.
func (g *Guard) waitForExit(pid int) bool {
	timeout := g.KillTimeout
	if timeout == 0 {
		timeout = DefaultKillTimeout
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			return true
		}
		time.Sleep(killPollInterval)
	}
	return !processAlive(pid)
}

func (g *Guard) removeRecord() error {
	if err := os.Remove(g.Path); err != nil && !os.IsNotExist(err) {
		return errors.New("E301").
			WithDetailf("Could not remove the stale record at %s.", g.Path).
			Wrap(err)
	}
	return nil
}
