package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONOutputCarriesGameAttrs(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "debug", true)

	ForGame("g-1").Info("attack resolved", "x", 3, "y", 4)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("ожидалась json строка: %v (%q)", err, buf.String())
	}
	if rec["game_id"] != "g-1" || rec["msg"] != "attack resolved" {
		t.Fatalf("неожиданная запись: %v", rec)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "warn", false)

	Info("скрыто")
	Warn("видно")

	out := buf.String()
	if strings.Contains(out, "скрыто") || !strings.Contains(out, "видно") {
		t.Fatalf("фильтрация уровней не работает: %q", out)
	}
}
