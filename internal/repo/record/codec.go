// Package record persists entities as hybrid records: a YAML metadata block,
// a separator line, then free-text content.
package record

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Separator is the line dividing the metadata block from the content.
// yaml.v3 quotes a "---" mapping key, so the line never occurs inside an
// encoded metadata block.
const Separator = "---"

// Encode serializes meta as YAML, followed by the separator line and content verbatim.
func Encode(meta any, content string) ([]byte, error) {
	var buf bytes.Buffer

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(meta); err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("close encoder: %w", err)
	}

	buf.WriteString(Separator + "\n")
	buf.WriteString(content)

	return buf.Bytes(), nil
}

// Decode parses the metadata block into meta and returns the content.
// A record without a separator line is all metadata with empty content.
func Decode(data []byte, meta any) (string, error) {
	metaBlock, content, _ := Split(data)

	if err := yaml.Unmarshal(metaBlock, meta); err != nil {
		return "", fmt.Errorf("decode metadata: %w", err)
	}

	return string(content), nil
}

// Split divides data at the first line that is exactly the separator.
// found reports whether a separator line was present.
func Split(data []byte) (meta []byte, content []byte, found bool) {
	for start := 0; start < len(data); {
		end := bytes.IndexByte(data[start:], '\n')

		var line []byte
		next := len(data)

		if end < 0 {
			line = data[start:]
		} else {
			line = data[start : start+end]
			next = start + end + 1
		}

		if string(bytes.TrimSuffix(line, []byte("\r"))) == Separator {
			return data[:start], data[next:], true
		}

		start = next
	}

	return data, nil, false
}
