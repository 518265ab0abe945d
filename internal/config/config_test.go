package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if s.Output.Directory != "logs" {
		t.Errorf("output.directory = %q, want logs", s.Output.Directory)
	}
	if s.MRI.Simulate {
		t.Error("mri.simulate should default to false")
	}
	if s.MRI.TR != 2.0 {
		t.Errorf("mri.tr = %v, want 2.0", s.MRI.TR)
	}
	if len(s.Window.Size) != 2 || s.Window.Size[0] != 1920 {
		t.Errorf("unexpected window.size: %v", s.Window.Size)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatal("expected an error for a missing settings file")
	}
}

// A partial user file overrides only the keys it names; sibling keys inside
// the same section keep their defaults.
func TestLoadPartialOverrideKeepsNestedDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yml")
	user := "mri:\n  simulate: true\nwindow:\n  fullscreen: false\n"
	if err := os.WriteFile(path, []byte(user), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !s.MRI.Simulate {
		t.Error("mri.simulate override lost")
	}
	if s.MRI.TR != 2.0 {
		t.Errorf("mri.tr default lost on partial override: %v", s.MRI.TR)
	}
	if s.MRI.SyncKey != "t" {
		t.Errorf("mri.sync_key default lost: %q", s.MRI.SyncKey)
	}
	if s.Window.Fullscreen {
		t.Error("window.fullscreen override lost")
	}
	if len(s.Window.Size) != 2 || s.Window.Size[0] != 1920 {
		t.Errorf("window.size default lost: %v", s.Window.Size)
	}
}

func TestSaveSnapshotRoundTrip(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	s.Monitor.Name = "scanner-boldscreen"

	path := filepath.Join(t.TempDir(), "out", "sub-01_expsettings.yml")
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "scanner-boldscreen") {
		t.Error("snapshot does not contain the resolved monitor name")
	}

	s2, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if s2.Monitor.Name != "scanner-boldscreen" {
		t.Errorf("reloaded monitor.name = %q", s2.Monitor.Name)
	}
}
