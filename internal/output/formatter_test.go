package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/danmuck/meshwap/internal/testutil/testlog"
)

type partRow struct {
	Part  int    `json:"part"`
	Bytes int    `json:"bytes"`
	Text  string `json:"text"`
	skip  bool
}

func TestNewFormatterRejectsUnknown(t *testing.T) {
	testlog.Start(t)
	for _, name := range []string{"", "table", "JSON", "yaml"} {
		if _, err := NewFormatter(name); err != nil {
			t.Fatalf("format %q: %v", name, err)
		}
	}
	if _, err := NewFormatter("xml"); err == nil {
		t.Fatalf("expected error for xml")
	}
}

func TestTableFormatsRowsAndMaps(t *testing.T) {
	testlog.Start(t)
	rows := []partRow{{Part: 1, Bytes: 120, Text: "abc"}, {Part: 2, Bytes: 30, Text: "de"}}
	out, err := TableFormatter{}.Format(rows)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "PART") || strings.Contains(lines[0], "SKIP") {
		t.Fatalf("table:\n%s", out)
	}
	if !strings.Contains(lines[1], "120") || !strings.Contains(lines[2], "de") {
		t.Fatalf("rows:\n%s", out)
	}

	out, err = TableFormatter{}.Format(map[string]any{"status": 200, "body": []byte{0xde, 0xad}})
	if err != nil {
		t.Fatalf("format map: %v", err)
	}
	if !strings.HasPrefix(out, "body:") || !strings.Contains(out, "de ad") || !strings.Contains(out, "status:") {
		t.Fatalf("map:\n%s", out)
	}

	if out, _ := (TableFormatter{}).Format([]partRow{}); out != "(none)\n" {
		t.Fatalf("empty got=%q", out)
	}
}

func TestJSONAndYAML(t *testing.T) {
	testlog.Start(t)
	row := partRow{Part: 1, Bytes: 5, Text: "hi"}
	out, err := JSONFormatter{}.Format(row)
	if err != nil || !strings.Contains(out, `"bytes": 5`) {
		t.Fatalf("json got=%q err=%v", out, err)
	}
	out, err = YAMLFormatter{}.Format(map[string]any{"encoded": "fPNKd", "bytes": 5})
	if err != nil || !strings.Contains(out, "encoded: fPNKd") || !strings.Contains(out, "bytes: 5") {
		t.Fatalf("yaml got=%q err=%v", out, err)
	}
}

func TestStatusLines(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	OK(&buf, "sent %d parts", 3)
	Fail(&buf, "timeout")
	Detail(&buf, "after %s", "40s")
	out := buf.String()
	for _, want := range []string{"[ok]", "sent 3 parts", "[fail]", "timeout", "after 40s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}
