package writer

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/mch-analysis/pkg/compression"
)

type testData struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestJSONWriter_Write(t *testing.T) {
	data := testData{Name: "test", Value: 42}

	t.Run("compact output", func(t *testing.T) {
		w := NewJSONWriter[testData]()
		var buf bytes.Buffer
		err := w.Write(data, &buf)
		if err != nil {
			t.Fatalf("Write failed: %v", err)
		}

		expected := `{"name":"test","value":42}` + "\n"
		if buf.String() != expected {
			t.Errorf("got %q, want %q", buf.String(), expected)
		}
	})

	t.Run("pretty output", func(t *testing.T) {
		w := NewPrettyJSONWriter[testData]()
		var buf bytes.Buffer
		err := w.Write(data, &buf)
		if err != nil {
			t.Fatalf("Write failed: %v", err)
		}

		// Verify it's valid JSON and indented
		var decoded testData
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("Failed to decode output: %v", err)
		}
		if decoded != data {
			t.Errorf("decoded data mismatch: got %+v, want %+v", decoded, data)
		}
	})
}

func TestJSONWriter_WriteToFile(t *testing.T) {
	data := testData{Name: "test", Value: 42}
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "test.json")

	w := NewJSONWriter[testData]()
	err := w.WriteToFile(data, filePath)
	if err != nil {
		t.Fatalf("WriteToFile failed: %v", err)
	}

	// Read and verify
	content, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}

	var decoded testData
	if err := json.Unmarshal(content, &decoded); err != nil {
		t.Fatalf("Failed to decode file: %v", err)
	}
	if decoded != data {
		t.Errorf("decoded data mismatch: got %+v, want %+v", decoded, data)
	}
}

func TestCompressedWriter_Write(t *testing.T) {
	data := testData{Name: "test", Value: 42}

	for _, ct := range []compression.Type{compression.TypeGzip, compression.TypeZstd, compression.TypeNone} {
		t.Run(ct.String(), func(t *testing.T) {
			w := NewCompressedWriter[testData](ct)
			var buf bytes.Buffer
			if err := w.Write(data, &buf); err != nil {
				t.Fatalf("Write failed: %v", err)
			}

			if got := compression.DetectType(buf.Bytes()); got != ct {
				t.Errorf("detected %s, want %s", got, ct)
			}

			decompressed, err := compression.Decompress(buf.Bytes())
			if err != nil {
				t.Fatalf("Failed to decompress: %v", err)
			}

			var decoded testData
			if err := json.Unmarshal(decompressed, &decoded); err != nil {
				t.Fatalf("Failed to decode: %v", err)
			}
			if decoded != data {
				t.Errorf("decoded data mismatch: got %+v, want %+v", decoded, data)
			}
		})
	}
}

func TestCompressedWriter_UnknownType(t *testing.T) {
	w := NewCompressedWriter[testData](compression.Type(7))
	if err := w.Write(testData{}, io.Discard); err == nil {
		t.Fatal("expected error for unknown compression type")
	}
}

func TestGzipWriter_WriteToFile(t *testing.T) {
	data := testData{Name: "test", Value: 42}
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "test.json.gz")

	w := NewGzipWriter[testData]()
	err := w.WriteToFile(data, filePath)
	if err != nil {
		t.Fatalf("WriteToFile failed: %v", err)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}

	decompressed, err := compression.Decompress(content)
	if err != nil {
		t.Fatalf("Failed to decompress: %v", err)
	}

	var decoded testData
	if err := json.Unmarshal(decompressed, &decoded); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if decoded != data {
		t.Errorf("decoded data mismatch: got %+v, want %+v", decoded, data)
	}
}

func TestCompressedWriter_WriteToFileWithStats(t *testing.T) {
	data := testData{Name: "test", Value: 42}
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "test.json.zst")

	w := NewCompressedWriter[testData](compression.TypeZstd)
	result, err := w.WriteToFileWithStats(data, filePath)
	if err != nil {
		t.Fatalf("WriteToFileWithStats failed: %v", err)
	}

	if result.JSONSize != int64(len(`{"name":"test","value":42}`)+1) {
		t.Errorf("JSONSize = %d", result.JSONSize)
	}
	if result.CompressedSize <= 0 {
		t.Errorf("CompressedSize should be positive, got %d", result.CompressedSize)
	}
	if result.CompressionPct <= 0 {
		t.Errorf("CompressionPct should be positive, got %f", result.CompressionPct)
	}

	info, err := os.Stat(filePath)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if info.Size() != result.CompressedSize {
		t.Errorf("file size %d, reported %d", info.Size(), result.CompressedSize)
	}
}
