package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	cases := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"  json  ", FormatJSON, false},
		{"xml", "", true},
	}

	for _, tc := range cases {
		got, err := ParseFormat(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q): expected error", tc.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q): unexpected error: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"name": "daylytics", "port": 8080}

	if err := PrintJSON(&buf, data); err != nil {
		t.Fatalf("PrintJSON failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"name": "daylytics"`) {
		t.Errorf("Expected indented JSON output, got: %s", out)
	}
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]string{"status": "running"}

	if err := PrintYAML(&buf, data); err != nil {
		t.Fatalf("PrintYAML failed: %v", err)
	}

	if !strings.Contains(buf.String(), "status: running") {
		t.Errorf("Expected YAML output, got: %s", buf.String())
	}
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTableData("Email", "Used")
	table.AddRow("a@example.com", "100")
	table.AddRow("b@example.com", "250")

	if err := PrintTable(&buf, table); err != nil {
		t.Fatalf("PrintTable failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "a@example.com") || !strings.Contains(out, "250") {
		t.Errorf("Expected table rows in output, got: %s", out)
	}
	if !strings.Contains(strings.ToUpper(out), "EMAIL") {
		t.Errorf("Expected header in output, got: %s", out)
	}
}
