package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	payload := map[string]any{"name": "docs", "count": 3}

	if err := PrintJSON(&buf, payload); err != nil {
		t.Fatalf("PrintJSON failed: %v", err)
	}

	out := buf.String()
	if !strings.HasSuffix(out, "\n") {
		t.Error("expected trailing newline")
	}
	if !strings.Contains(out, "  \"name\"") {
		t.Errorf("expected two-space indentation, got %q", out)
	}

	var back map[string]any
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if back["name"] != "docs" {
		t.Errorf("round trip lost data: %v", back)
	}
}

func TestPrintJSONSlice(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, []string{"a", "b"}); err != nil {
		t.Fatalf("PrintJSON failed: %v", err)
	}

	var back []string
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(back) != 2 || back[0] != "a" {
		t.Errorf("round trip produced %v", back)
	}
}
