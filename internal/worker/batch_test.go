package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/infoverif/dimascan/internal/model"
)

// mockAnalyzer implements Analyzer
type mockAnalyzer struct {
	shouldError bool
}

func (m *mockAnalyzer) AnalyzeFile(ctx context.Context, path string) (*model.Report, error) {
	time.Sleep(10 * time.Millisecond) // simulate judge latency
	if m.shouldError {
		return nil, errors.New("analysis error")
	}
	return &model.Report{Subject: path}, nil
}

func writeListFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "files.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_ProcessFiles(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{}, 2)

	paths := []string{"a.txt", "b.txt", "c.txt"}
	results := processor.ProcessFiles(context.Background(), paths)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for _, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Path, res.Error)
		}
		if res.Report == nil {
			t.Errorf("expected report for %s", res.Path)
		}
	}
}

func TestBatchProcessor_ProcessFiles_Error(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{shouldError: true}, 2)

	results := processor.ProcessFiles(context.Background(), []string{"a.txt"})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[0].Report != nil {
		t.Error("expected nil report on error")
	}
	if results[0].GetError() == nil {
		t.Error("GetError should surface the job error")
	}
}

func TestBatchProcessor_ProcessFiles_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{}, 2)

	results := processor.ProcessFiles(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessList(t *testing.T) {
	list := writeListFile(t, "a.txt\n# comment\nb.txt\n\n   c.txt   \n")
	processor := NewBatchProcessor(&mockAnalyzer{}, 2)

	results, err := processor.ProcessList(context.Background(), list)
	if err != nil {
		t.Fatalf("ProcessList: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessList_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{}, 2)
	if _, err := processor.ProcessList(context.Background(), "no_such_file.txt"); err == nil {
		t.Error("expected error for non-existent list file")
	}
}

func TestReadPathsFromFile(t *testing.T) {
	list := writeListFile(t, "a.txt\n# comment\nb.txt\n   \nc.txt   ")

	paths, err := ReadPathsFromFile(list)
	if err != nil {
		t.Fatalf("ReadPathsFromFile: %v", err)
	}

	expected := []string{"a.txt", "b.txt", "c.txt"}
	if len(paths) != len(expected) {
		t.Fatalf("expected %d paths, got %d", len(expected), len(paths))
	}
	for i, p := range paths {
		if p != expected[i] {
			t.Errorf("expected %s at index %d, got %s", expected[i], i, p)
		}
	}
}

func TestReadPathsFromFile_Deduplication(t *testing.T) {
	list := writeListFile(t, "a.txt\na.txt\n")

	paths, err := ReadPathsFromFile(list)
	if err != nil {
		t.Fatalf("ReadPathsFromFile: %v", err)
	}
	if len(paths) != 1 {
		t.Errorf("expected 1 path after deduplication, got %d", len(paths))
	}
}
