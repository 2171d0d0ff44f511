package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "WARN", "text")
	defer InitWithWriter(&buf, "INFO", "text")

	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") {
		t.Error("debug message should be filtered at WARN level")
	}
	if strings.Contains(out, "info message") {
		t.Error("info message should be filtered at WARN level")
	}
	if !strings.Contains(out, "warn message") {
		t.Error("warn message should be logged at WARN level")
	}
	if !strings.Contains(out, "error message") {
		t.Error("error message should be logged at WARN level")
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "json")
	defer InitWithWriter(&buf, "INFO", "text")

	Info("upload complete", "user_id", "u1", "size", 42)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["msg"] != "upload complete" {
		t.Errorf("unexpected msg: %v", entry["msg"])
	}
	if entry["user_id"] != "u1" {
		t.Errorf("unexpected user_id: %v", entry["user_id"])
	}
}

func TestSetLevelIgnoresInvalid(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text")

	SetLevel("NOISY")

	Info("still info")
	if !strings.Contains(buf.String(), "still info") {
		t.Error("invalid level must not change filtering")
	}
}
