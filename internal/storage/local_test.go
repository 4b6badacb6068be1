package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mch-analysis/pkg/config"
)

func TestNewLocalStorage(t *testing.T) {
	t.Run("CreateWithDefaultPath", func(t *testing.T) {
		tempDir := t.TempDir()
		defaultPath := filepath.Join(tempDir, "storage")

		storage, err := NewLocalStorage(defaultPath)
		require.NoError(t, err)
		require.NotNil(t, storage)

		info, err := os.Stat(defaultPath)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("CreateWithEmptyPath", func(t *testing.T) {
		t.Chdir(t.TempDir())

		storage, err := NewLocalStorage("")
		require.NoError(t, err)
		require.NotNil(t, storage)

		assert.Equal(t, "./storage", storage.GetBasePath())
	})
}

func TestLocalStorage_Upload(t *testing.T) {
	tempDir := t.TempDir()
	storage, err := NewLocalStorage(tempDir)
	require.NoError(t, err)

	t.Run("UploadFromReader", func(t *testing.T) {
		content := []byte("---- Minecraft Profiler Results ----\n")

		err := storage.Upload(context.Background(), "dumps/2026/10/18/profile.txt", bytes.NewReader(content))
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(tempDir, "dumps", "2026", "10", "18", "profile.txt"))
		require.NoError(t, err)
		assert.Equal(t, content, data)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, storage.Upload(context.Background(), "x.txt", bytes.NewReader([]byte("one"))))
		require.NoError(t, storage.Upload(context.Background(), "x.txt", bytes.NewReader([]byte("two"))))

		data, err := os.ReadFile(filepath.Join(tempDir, "x.txt"))
		require.NoError(t, err)
		assert.Equal(t, "two", string(data))
	})

	t.Run("UploadWithCanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := storage.Upload(ctx, "canceled.txt", bytes.NewReader([]byte("test")))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("RejectsEscapingKey", func(t *testing.T) {
		err := storage.Upload(context.Background(), "../escape.txt", bytes.NewReader([]byte("x")))
		assert.Error(t, err)
		_, statErr := os.Stat(filepath.Join(filepath.Dir(tempDir), "escape.txt"))
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestLocalStorage_Download(t *testing.T) {
	tempDir := t.TempDir()
	storage, err := NewLocalStorage(tempDir)
	require.NoError(t, err)

	t.Run("DownloadExistingFile", func(t *testing.T) {
		content := []byte("download test content")
		filePath := filepath.Join(tempDir, "download", "test.txt")
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, content, 0644))

		reader, err := storage.Download(context.Background(), "download/test.txt")
		require.NoError(t, err)
		defer reader.Close()

		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, content, data)
	})

	t.Run("DownloadNonExistentFile", func(t *testing.T) {
		_, err := storage.Download(context.Background(), "nonexistent.txt")
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestLocalStorage_Delete(t *testing.T) {
	tempDir := t.TempDir()
	storage, err := NewLocalStorage(tempDir)
	require.NoError(t, err)

	t.Run("DeleteExistingFile", func(t *testing.T) {
		filePath := filepath.Join(tempDir, "delete", "test.txt")
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte("to delete"), 0644))

		err := storage.Delete(context.Background(), "delete/test.txt")
		require.NoError(t, err)

		_, err = os.Stat(filePath)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("DeleteNonExistentFile", func(t *testing.T) {
		err := storage.Delete(context.Background(), "nonexistent.txt")
		assert.NoError(t, err)
	})
}

func TestLocalStorage_Exists(t *testing.T) {
	tempDir := t.TempDir()
	storage, err := NewLocalStorage(tempDir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "exists.txt"), []byte("exists"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(tempDir, "dir"), 0755))

	tests := []struct {
		key  string
		want bool
	}{
		{"exists.txt", true},
		{"notexists.txt", false},
		{"dir", false},
	}
	for _, tt := range tests {
		exists, err := storage.Exists(context.Background(), tt.key)
		require.NoError(t, err, tt.key)
		assert.Equal(t, tt.want, exists, tt.key)
	}
}

func TestLocalStorage_List(t *testing.T) {
	tempDir := t.TempDir()
	storage, err := NewLocalStorage(tempDir)
	require.NoError(t, err)

	ctx := context.Background()
	for _, key := range []string{"reports/b.txt", "reports/a.txt", "dumps/c.txt"} {
		require.NoError(t, storage.Upload(ctx, key, bytes.NewReader([]byte(key))))
	}

	keys, err := storage.List(ctx, "reports/")
	require.NoError(t, err)
	assert.Equal(t, []string{"reports/a.txt", "reports/b.txt"}, keys)

	all, err := storage.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLocalStorage_GetURL(t *testing.T) {
	tempDir := t.TempDir()
	storage, err := NewLocalStorage(tempDir)
	require.NoError(t, err)

	url := storage.GetURL("path/to/file.txt")
	expected := filepath.Join(tempDir, "path/to/file.txt")
	assert.Equal(t, expected, url)
	assert.Empty(t, storage.GetURL("../x"))
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"a/b.txt", "a/b.txt", false},
		{"/a//b.txt", "a/b.txt", false},
		{`a\b.txt`, "a/b.txt", false},
		{"./a/./b.txt", "a/b.txt", false},
		{"../a", "", true},
		{"a/../../b", "", true},
		{"", "", true},
		{"/", "", true},
	}
	for _, tt := range tests {
		got, err := CleanKey(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestObjectKey(t *testing.T) {
	at := time.Date(2026, 10, 18, 23, 30, 0, 0, time.FixedZone("X", -3*3600))
	assert.Equal(t, "reports/2026/10/19/run-1.txt", ObjectKey(KindReport, at, "/tmp/out/run-1.txt"))
	assert.Equal(t, "dumps/2026/10/19/profile.txt", ObjectKey(KindDump, at, `C:\debug\profile.txt`))
}

func TestWithPrefix(t *testing.T) {
	tempDir := t.TempDir()
	local, err := NewLocalStorage(tempDir)
	require.NoError(t, err)

	s := WithPrefix(local, "/mch/")
	ctx := context.Background()
	require.NoError(t, s.Upload(ctx, "reports/a.txt", bytes.NewReader([]byte("a"))))

	_, err = os.Stat(filepath.Join(tempDir, "mch", "reports", "a.txt"))
	require.NoError(t, err)

	ok, err := s.Exists(ctx, "reports/a.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	keys, err := s.List(ctx, "reports")
	require.NoError(t, err)
	assert.Equal(t, []string{"reports/a.txt"}, keys)

	rc, err := s.Download(ctx, "reports/a.txt")
	require.NoError(t, err)
	rc.Close()

	require.NoError(t, s.Delete(ctx, "reports/a.txt"))
	assert.Equal(t, filepath.Join(tempDir, "mch", "reports", "b.txt"), s.GetURL("reports/b.txt"))
}

func TestNewStorage(t *testing.T) {
	t.Run("CreateLocalStorage", func(t *testing.T) {
		tempDir := t.TempDir()
		cfg := &config.StorageConfig{
			Type:      string(StorageTypeLocal),
			LocalPath: tempDir,
		}

		storage, err := NewStorage(cfg)
		require.NoError(t, err)

		_, ok := storage.(*LocalStorage)
		assert.True(t, ok)
	})

	t.Run("PrefixedStorage", func(t *testing.T) {
		cfg := &config.StorageConfig{
			LocalPath: t.TempDir(),
			Prefix:    "archive",
		}

		storage, err := NewStorage(cfg)
		require.NoError(t, err)

		_, ok := storage.(*LocalStorage)
		assert.False(t, ok)
	})

	t.Run("UnknownType", func(t *testing.T) {
		_, err := NewStorage(&config.StorageConfig{Type: "s3", LocalPath: t.TempDir()})
		assert.Error(t, err)
	})
}
