// internal/storage/file_storage_test.go
package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestStorage(t *testing.T) *FileStorage {
	t.Helper()

	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	return fs
}

func TestSaveAndLoadJSON(t *testing.T) {
	fs := newTestStorage(t)

	want := []record{{ID: "a", Name: "first"}, {ID: "b", Name: "second"}}
	require.NoError(t, fs.SaveJSONFile("records.json", want))

	var got []record
	require.NoError(t, fs.LoadJSONFile("records.json", &got))
	assert.Equal(t, want, got)
}

func TestSaveIsPrettyPrinted(t *testing.T) {
	fs := newTestStorage(t)

	require.NoError(t, fs.SaveJSONFile("records.json", []record{{ID: "a", Name: "x"}}))

	content, err := os.ReadFile(filepath.Join(fs.BaseDir, "records.json"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "\n  ", "JSON应是带缩进的格式")
}

func TestOverwriteInvalidatesCache(t *testing.T) {
	fs := newTestStorage(t)

	require.NoError(t, fs.SaveJSONFile("records.json", []record{{ID: "a"}}))

	// 先读一次填充缓存
	var first []record
	require.NoError(t, fs.LoadJSONFile("records.json", &first))

	require.NoError(t, fs.SaveJSONFile("records.json", []record{{ID: "a"}, {ID: "b"}}))

	var second []record
	require.NoError(t, fs.LoadJSONFile("records.json", &second))
	assert.Len(t, second, 2, "写入后应读到新内容而不是缓存")
}

func TestLoadMissingFile(t *testing.T) {
	fs := newTestStorage(t)

	var out []record
	assert.Error(t, fs.LoadJSONFile("missing.json", &out))
}

func TestFileExists(t *testing.T) {
	fs := newTestStorage(t)

	assert.False(t, fs.FileExists("records.json"))
	require.NoError(t, fs.SaveJSONFile("records.json", []record{}))
	assert.True(t, fs.FileExists("records.json"))
}

func TestDeleteFile(t *testing.T) {
	fs := newTestStorage(t)

	require.NoError(t, fs.SaveJSONFile("records.json", []record{}))
	require.NoError(t, fs.DeleteFile("records.json"))
	assert.False(t, fs.FileExists("records.json"))

	assert.Error(t, fs.DeleteFile("records.json"), "重复删除应返回错误")
}

func TestNoTempFileLeftBehind(t *testing.T) {
	fs := newTestStorage(t)

	require.NoError(t, fs.SaveJSONFile("records.json", []record{{ID: "a"}}))

	entries, err := os.ReadDir(fs.BaseDir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".tmp")
	}
}
