package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dataLines int) string {
	t.Helper()

	var sb strings.Builder
	sb.WriteString("name\timage_id\tface_id\turl\tbbox\tsha256\n")
	for i := 1; i <= dataLines; i++ {
		fmt.Fprintf(&sb, "Person %d\t%d\t1\thttp://example.com/%d.jpg\t0,0,10,10\n", i, i, i)
	}

	path := filepath.Join(t.TempDir(), "manifest.txt")
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return path
}

func TestScan_SkipsHeader(t *testing.T) {
	path := writeManifest(t, 3)

	var visited []int
	err := Scan(path, 0, 0, func(line string, n int) error {
		visited = append(visited, n)
		if strings.HasPrefix(line, "name\t") {
			t.Errorf("header line visited as data: %q", line)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(visited) != 3 {
		t.Fatalf("visited %d lines, want 3", len(visited))
	}
	for i, n := range visited {
		if n != i+1 {
			t.Errorf("visited[%d] = %d, want %d", i, n, i+1)
		}
	}
}

func TestScan_LineRange(t *testing.T) {
	path := writeManifest(t, 30)

	tests := []struct {
		name    string
		startAt int
		endAt   int
		want    []int
	}{
		{"inclusive range", 10, 12, []int{10, 11, 12}},
		{"start only", 28, 0, []int{28, 29, 30}},
		{"end only", 0, 2, []int{1, 2}},
		{"single line", 5, 5, []int{5}},
		{"range beyond end", 29, 99, []int{29, 30}},
		{"range entirely past end", 40, 50, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var visited []int
			err := Scan(path, tt.startAt, tt.endAt, func(line string, n int) error {
				visited = append(visited, n)
				return nil
			})
			if err != nil {
				t.Fatalf("Scan() error = %v", err)
			}

			if len(visited) != len(tt.want) {
				t.Fatalf("visited %v, want %v", visited, tt.want)
			}
			for i := range tt.want {
				if visited[i] != tt.want[i] {
					t.Errorf("visited %v, want %v", visited, tt.want)
					break
				}
			}
		})
	}
}

func TestScan_HeaderOnlyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.txt")
	if err := os.WriteFile(path, []byte("name\timage_id\n"), 0644); err != nil {
		t.Fatal(err)
	}

	err := Scan(path, 0, 0, func(line string, n int) error {
		t.Errorf("unexpected visit: line %d", n)
		return nil
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
}

func TestScan_VisitErrorStopsScan(t *testing.T) {
	path := writeManifest(t, 10)

	count := 0
	err := Scan(path, 0, 0, func(line string, n int) error {
		count++
		if n == 3 {
			return fmt.Errorf("stop here")
		}
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "stop here") {
		t.Fatalf("Scan() error = %v, want visit error", err)
	}
	if count != 3 {
		t.Errorf("visited %d lines before stopping, want 3", count)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr string
	}{
		{
			name:    "empty path",
			setup:   func(t *testing.T) string { return "" },
			wantErr: "cannot be empty",
		},
		{
			name:    "missing file",
			setup:   func(t *testing.T) string { return "/nonexistent/manifest.txt" },
			wantErr: "does not exist",
		},
		{
			name:    "directory",
			setup:   func(t *testing.T) string { return t.TempDir() },
			wantErr: "directory",
		},
		{
			name: "empty file",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "empty.txt")
				os.WriteFile(path, nil, 0644)
				return path
			},
			wantErr: "is empty",
		},
		{
			name:  "valid file",
			setup: func(t *testing.T) string { return writeManifest(t, 1) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.setup(t))
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestCollect(t *testing.T) {
	content := strings.Join([]string{
		"name\timage_id\tface_id\turl\tbbox\tsha256",
		"A Person\t1\t1\thttp://example.com/1.jpg\t0,0,10,10\tabc",
		"B Person\t2\t1\thttp://example.com/2.jpg\t0,0,10,10",
		"C Person\t3\t1\thttp://example.com/3.jpg\t",
		"broken line",
	}, "\n") + "\n"

	path := filepath.Join(t.TempDir(), "manifest.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	stats, err := Collect(path)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if stats.DataLines != 4 {
		t.Errorf("DataLines = %d, want 4", stats.DataLines)
	}
	if stats.WithChecksum != 1 {
		t.Errorf("WithChecksum = %d, want 1", stats.WithChecksum)
	}
	if stats.WithBBox != 2 {
		t.Errorf("WithBBox = %d, want 2", stats.WithBBox)
	}
	if stats.ParseFailures != 1 {
		t.Errorf("ParseFailures = %d, want 1", stats.ParseFailures)
	}
}
