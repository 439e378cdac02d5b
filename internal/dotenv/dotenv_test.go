package dotenv

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileMissingFileIsNoop(t *testing.T) {
	if err := LoadFile(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("LoadFile(missing) error = %v, want nil", err)
	}
}

func TestLoadFileReadsValuesAndPreservesExisting(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	content := "" +
		"# local credentials\n" +
		"GEMINI_API_KEY=from-file\n" +
		"ADVISOR_SYSTEM_PROMPT=\"Bạn là trợ lý\"\n" +
		"export ADVISOR_MODEL=gemini-test\n" +
		"ADVISOR_METRICS_ADDR=:9100\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("GEMINI_API_KEY", "from-deployment")
	t.Setenv("ADVISOR_SYSTEM_PROMPT", "")
	os.Unsetenv("ADVISOR_SYSTEM_PROMPT")
	t.Setenv("ADVISOR_MODEL", "")
	os.Unsetenv("ADVISOR_MODEL")
	t.Setenv("ADVISOR_METRICS_ADDR", "")
	os.Unsetenv("ADVISOR_METRICS_ADDR")

	if err := LoadFile(envPath); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if got := os.Getenv("GEMINI_API_KEY"); got != "from-deployment" {
		t.Fatalf("GEMINI_API_KEY = %q, want deployment value preserved", got)
	}
	if got := os.Getenv("ADVISOR_SYSTEM_PROMPT"); got != "Bạn là trợ lý" {
		t.Fatalf("ADVISOR_SYSTEM_PROMPT = %q, want unquoted value", got)
	}
	if got := os.Getenv("ADVISOR_MODEL"); got != "gemini-test" {
		t.Fatalf("ADVISOR_MODEL = %q, want export line honored", got)
	}
	if got := os.Getenv("ADVISOR_METRICS_ADDR"); got != ":9100" {
		t.Fatalf("ADVISOR_METRICS_ADDR = %q", got)
	}
}

func TestParseLine(t *testing.T) {
	cases := []struct {
		line string
		key  string
		val  string
		ok   bool
	}{
		{"A=1", "A", "1", true},
		{"  B = two ", "B", "two", true},
		{"export C=3", "C", "3", true},
		{"D='quoted'", "D", "quoted", true},
		{"# comment", "", "", false},
		{"", "", "", false},
		{"=nokey", "", "", false},
	}
	for _, tc := range cases {
		key, val, ok := parseLine(tc.line)
		if key != tc.key || val != tc.val || ok != tc.ok {
			t.Errorf("parseLine(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.line, key, val, ok, tc.key, tc.val, tc.ok)
		}
	}
}
