package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewWithWriter_LevelByEnv(t *testing.T) {
	var dev bytes.Buffer
	NewWithWriter("dev", &dev).Debug("recalculated", "budget_id", "b1")
	if dev.Len() == 0 {
		t.Fatalf("expected debug record in dev")
	}

	var rec map[string]any
	if err := json.Unmarshal(dev.Bytes(), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec["msg"] != "recalculated" || rec["budget_id"] != "b1" {
		t.Fatalf("unexpected record: %v", rec)
	}

	var prod bytes.Buffer
	NewWithWriter("prod", &prod).Debug("hidden")
	if prod.Len() != 0 {
		t.Fatalf("expected no debug record in prod, got %s", prod.String())
	}
}
