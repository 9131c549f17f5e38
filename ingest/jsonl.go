// Package ingest parses bulk event uploads and rule seed files into core
// domain objects.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"workbench/core"

	"go.uber.org/zap"
)

// maxLineBytes bounds a single JSONL line. A line beyond this fails the
// whole scan rather than growing the buffer without limit.
const maxLineBytes = 1 << 20

// JSONLResult reports the outcome of parsing a JSONL upload.
type JSONLResult struct {
	Events  []*core.Event
	Skipped int
}

// ParseJSONL decodes newline-delimited JSON into events. Each non-empty
// line must be a JSON object; malformed lines and non-object lines are
// counted as skipped, never fatal. The source/host/user labels apply to
// every event in the upload.
func ParseJSONL(r io.Reader, source, host, user string, logger *zap.SugaredLogger) (*JSONLResult, error) {
	result := &JSONLResult{Events: []*core.Event{}}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var raw map[string]interface{}
		if err := json.Unmarshal(line, &raw); err != nil {
			result.Skipped++
			logger.Warnw("Skipping malformed JSONL line", "line", lineNo, "error", err)
			continue
		}

		result.Events = append(result.Events, core.NewEvent(source, host, user, raw))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading JSONL upload: %w", err)
	}

	return result, nil
}
