package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/cache"
)

var sampleStats = cache.Stats{
	Hits:         500,
	Sets:         500,
	HitRate:      100,
	Size:         500,
	MemoryBytes:  1890,
	Memory:       "1.9 kB",
	Backend:      "memory",
	BackendState: "disconnected",
}

func newTestPrinter(format Format) (*Printer, *bytes.Buffer) {
	var buf bytes.Buffer
	p := NewPrinter(format)
	p.SetWriter(&buf)
	p.SetNoColor(true)
	return p, &buf
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"json":  FormatJSON,
		"YAML":  FormatYAML,
		"yml":   FormatYAML,
		"table": FormatTable,
		"":      FormatTable,
	}
	for in, want := range cases {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPrintStats_Table(t *testing.T) {
	p, buf := newTestPrinter(FormatTable)
	if err := p.PrintStats(sampleStats); err != nil {
		t.Fatalf("PrintStats failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"METRIC", "hits", "500", "100%", "1.9 kB", "memory (disconnected)"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintStats_JSON(t *testing.T) {
	p, buf := newTestPrinter(FormatJSON)
	if err := p.PrintStats(sampleStats); err != nil {
		t.Fatalf("PrintStats failed: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got["hitRate"] != float64(100) || got["backend"] != "memory" {
		t.Fatalf("unexpected json %v", got)
	}
}

func TestPrintStats_YAML(t *testing.T) {
	p, buf := newTestPrinter(FormatYAML)
	if err := p.PrintStats(sampleStats); err != nil {
		t.Fatalf("PrintStats failed: %v", err)
	}
	var got map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if got["hitRate"] != 100 || got["size"] != 500 {
		t.Fatalf("unexpected yaml %v", got)
	}
}

func TestPrintKeys(t *testing.T) {
	p, buf := newTestPrinter(FormatTable)
	p.PrintKeys(nil)
	if !strings.Contains(buf.String(), "No keys found") {
		t.Fatalf("unexpected output %q", buf.String())
	}

	buf.Reset()
	p.PrintKeys([]string{"team-stats:DAL", "team-stats:PHI"})
	if !strings.Contains(buf.String(), "team-stats:PHI") {
		t.Fatalf("unexpected output %q", buf.String())
	}

	p, buf = newTestPrinter(FormatJSON)
	p.PrintKeys([]string{"a"})
	if strings.TrimSpace(buf.String()) != "[\n  \"a\"\n]" {
		t.Fatalf("unexpected json %q", buf.String())
	}
}

func TestMessages(t *testing.T) {
	p, buf := newTestPrinter(FormatTable)
	p.Success("connected to %s", "redis")
	p.Warning("slow")
	p.Error("failed: %d", 3)
	out := buf.String()
	for _, want := range []string{"✓ connected to redis", "! slow", "✗ failed: 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
