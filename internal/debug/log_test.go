package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogWritesOnlyWhileEnabled(t *testing.T) {
	Log("test", "dropped %d", 1)

	path := filepath.Join(t.TempDir(), "nested", "debug.log")
	if err := Enable(path); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if !Enabled() {
		t.Fatalf("expected logging to be enabled")
	}
	Log("project", "saved %s", "demo.xml")
	for i := 0; i < 4; i++ {
		LogEvery(2, "tick", "block")
	}
	Disable()
	Log("project", "after disable")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if strings.Contains(out, "dropped") || strings.Contains(out, "after disable") {
		t.Fatalf("logged while disabled:\n%s", out)
	}
	if !strings.Contains(out, "saved demo.xml") {
		t.Fatalf("missing entry:\n%s", out)
	}
	if n := strings.Count(out, "block (every 2"); n != 2 {
		t.Fatalf("expected 2 sampled entries, got %d:\n%s", n, out)
	}
}
