package config

import (
	"os"
	"testing"

	"github.com/ahostbr/kuroryuu/internal/models"
)

func TestDaemonInfoRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	info := models.NewDaemonInfo("localhost", os.Getpid())
	if err := SaveDaemonInfo(info); err != nil {
		t.Fatalf("SaveDaemonInfo: %v", err)
	}

	loaded, err := LoadDaemonInfo()
	if err != nil {
		t.Fatalf("LoadDaemonInfo: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected daemon info")
	}
	if loaded.Host != "localhost" || loaded.PID != os.Getpid() {
		t.Errorf("unexpected daemon info: %+v", loaded)
	}
	if loaded.StartedAt.IsZero() {
		t.Error("expected started_at to be set")
	}
}

func TestLoadDaemonInfoMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	info, err := LoadDaemonInfo()
	if err != nil {
		t.Fatalf("LoadDaemonInfo: %v", err)
	}
	if info != nil {
		t.Errorf("expected nil for a missing file, got %+v", info)
	}
}

func TestIsDaemonRunningLivePID(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	// Our own PID is alive by definition.
	if err := SaveDaemonInfo(models.NewDaemonInfo("localhost", os.Getpid())); err != nil {
		t.Fatalf("SaveDaemonInfo: %v", err)
	}

	running, info, err := IsDaemonRunning()
	if err != nil {
		t.Fatalf("IsDaemonRunning: %v", err)
	}
	if !running {
		t.Error("expected running=true for a live PID")
	}
	if info == nil || info.PID != os.Getpid() {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestIsDaemonRunningStalePIDCleansUp(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	// PIDs wrap far below this on Linux, so it cannot be a live process.
	if err := SaveDaemonInfo(models.NewDaemonInfo("localhost", 1<<22+12345)); err != nil {
		t.Fatalf("SaveDaemonInfo: %v", err)
	}

	running, _, err := IsDaemonRunning()
	if err != nil {
		t.Fatalf("IsDaemonRunning: %v", err)
	}
	if running {
		t.Error("expected running=false for a dead PID")
	}

	// The stale file is removed so the next start does not re-check it.
	info, err := LoadDaemonInfo()
	if err != nil {
		t.Fatalf("LoadDaemonInfo: %v", err)
	}
	if info != nil {
		t.Error("expected stale daemon.yaml to be cleaned up")
	}
}

func TestRemoveDaemonInfoMissingIsNoop(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := RemoveDaemonInfo(); err != nil {
		t.Errorf("RemoveDaemonInfo on missing file: %v", err)
	}
}
