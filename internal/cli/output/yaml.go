package output

import (
	"io"

	"gopkg.in/yaml.v3"
)

// PrintYAML writes data to w as YAML with two-space indentation.
func PrintYAML(w io.Writer, data any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(data)
}
