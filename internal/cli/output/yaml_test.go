package output

import (
	"bytes"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	payload := struct {
		Name  string `yaml:"name"`
		Count int    `yaml:"count"`
	}{Name: "docs", Count: 3}

	if err := PrintYAML(&buf, payload); err != nil {
		t.Fatalf("PrintYAML failed: %v", err)
	}

	var back struct {
		Name  string `yaml:"name"`
		Count int    `yaml:"count"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if back.Name != "docs" || back.Count != 3 {
		t.Errorf("round trip produced %+v", back)
	}
}
