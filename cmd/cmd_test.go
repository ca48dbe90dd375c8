package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sergev/spectran/api"
)

// run executes the root command against the simulated backend.
func run(t *testing.T, args ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "spectran.toml")
	settings := "backend = \"sim\"\nlog_level = \"error\"\n\n[state]\npoll_ms = 1\n"
	if err := os.WriteFile(path, []byte(settings), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", path}, args...))
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("spectran %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestDevices(t *testing.T) {
	out := run(t, "devices")
	for _, s := range []string{"Serial", "Superspeed", "SIM0001"} {
		if !strings.Contains(out, s) {
			t.Errorf("output lacks %q:\n%s", s, out)
		}
	}
}

func TestVersion(t *testing.T) {
	out := run(t, "version")
	if !strings.Contains(out, "RTSA API version:") || !strings.Contains(out, "Backend: sim") {
		t.Errorf("output:\n%s", out)
	}
}

func TestReset(t *testing.T) {
	if out := run(t, "reset"); !strings.Contains(out, "Devices reset.") {
		t.Errorf("output:\n%s", out)
	}
}

func TestStream(t *testing.T) {
	out := run(t, "stream", "--count", "2", "--samples", "1")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	rows := 0
	for _, l := range lines {
		if strings.HasPrefix(l, "| ") {
			rows++
		}
	}
	// header plus two packets
	if rows != 3 {
		t.Errorf("%d table lines, want 3:\n%s", rows, out)
	}
	if !strings.Contains(out, "startFrequency") {
		t.Errorf("header missing:\n%s", out)
	}
}

func TestConfigDumpPush(t *testing.T) {
	file := filepath.Join(t.TempDir(), "conf.json")
	run(t, "config", "dump", file)

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\"centerfreq\"") {
		t.Fatalf("dump lacks main/centerfreq:\n%s", data)
	}

	out := run(t, "config", "push", file)
	if !strings.Contains(out, "skipped 1.") {
		t.Errorf("output:\n%s", out)
	}
}

func TestConfigGetSet(t *testing.T) {
	out := run(t, "config", "set", "main/reflevel", "50")
	if !strings.Contains(out, "main/reflevel: WARNING_VALUE_ADJUSTED") {
		t.Errorf("set output:\n%s", out)
	}
	out = run(t, "config", "get", "main/reflevel")
	if !strings.HasPrefix(out, "main/reflevel = ") || !strings.Contains(out, "dBm") {
		t.Errorf("get output:\n%s", out)
	}
}

func TestWatchLines(t *testing.T) {
	out := run(t, "watch", "--plain", "--count", "1", "temperature")
	if !strings.Contains(out, "Temperature") || !strings.Contains(out, "41.5") {
		t.Errorf("output:\n%s", out)
	}
}

func TestPickSerial(t *testing.T) {
	list := []api.DeviceInfo{{Serial: "A1"}, {Serial: "B2"}}
	if s, err := pickSerial(list, ""); err != nil || s != "A1" {
		t.Errorf("pickSerial(\"\") = %q, %v", s, err)
	}
	if s, err := pickSerial(list, "B2"); err != nil || s != "B2" {
		t.Errorf("pickSerial(B2) = %q, %v", s, err)
	}
	if _, err := pickSerial(list, "C3"); err == nil {
		t.Error("pickSerial(C3) found a missing device")
	}
	if _, err := pickSerial(nil, ""); err == nil {
		t.Error("pickSerial() found a device in an empty list")
	}
}
