package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"drivex/internal/engine"
)

func sampleHistory() []engine.BatchStats {
	return []engine.BatchStats{
		{Batch: 1, Episodes: 300, Completed: 300, Successes: 3, Epsilon: 0.86, TableSize: 410},
		{Batch: 2, Episodes: 300, Completed: 600, Successes: 45, Epsilon: 0.74, TableSize: 690},
		{Batch: 3, Episodes: 50, Completed: 650, Successes: 20, Epsilon: 0.72, TableSize: 702},
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleHistory()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := buf.String()
	for _, want := range []string{"<html", "Training progress", "Value table", "success rate", "epsilon", "3 batches"} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestRenderRejectsEmptyHistory(t *testing.T) {
	if err := Render(&bytes.Buffer{}, nil); !errors.Is(err, errNoHistory) {
		t.Fatalf("expected errNoHistory, got %v", err)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "training.html")
	if err := WriteFile(path, sampleHistory()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("empty report")
	}
}
