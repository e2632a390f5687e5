// internal/storage/file_storage_test.go
package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *FileStorage {
	t.Helper()
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	return fs
}

func TestSaveAndLoadTextFile(t *testing.T) {
	fs := newTestStorage(t)

	content := []byte("id: lighthouse\ntitle: 灯塔守夜人\n")
	require.NoError(t, fs.SaveTextFile("scripts", "lighthouse.yaml", content))

	loaded, err := fs.LoadTextFile("scripts", "lighthouse.yaml")
	require.NoError(t, err)
	assert.Equal(t, content, loaded)

	// 临时文件不应残留
	entries, err := os.ReadDir(filepath.Join(fs.BaseDir, "scripts"))
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".tmp")
	}
}

func TestSaveAndLoadJSONFile(t *testing.T) {
	fs := newTestStorage(t)

	type record struct {
		ID    string `json:"id"`
		Count int    `json:"count"`
	}

	require.NoError(t, fs.SaveJSONFile("", "state.json", record{ID: "s1", Count: 3}))

	var loaded record
	require.NoError(t, fs.LoadJSONFile("", "state.json", &loaded))
	assert.Equal(t, record{ID: "s1", Count: 3}, loaded)
}

func TestFileExists(t *testing.T) {
	fs := newTestStorage(t)

	assert.False(t, fs.FileExists("", "nope.txt"))
	require.NoError(t, fs.SaveTextFile("", "yes.txt", []byte("x")))
	assert.True(t, fs.FileExists("", "yes.txt"))
}

func TestListFiles_FiltersAndSorts(t *testing.T) {
	fs := newTestStorage(t)

	require.NoError(t, fs.SaveTextFile("", "b.yaml", []byte("b")))
	require.NoError(t, fs.SaveTextFile("", "a.yaml", []byte("a")))
	require.NoError(t, fs.SaveTextFile("", "c.json", []byte("c")))

	files, err := fs.ListFiles("", ".yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, files)
}

func TestDeleteFile(t *testing.T) {
	fs := newTestStorage(t)

	require.NoError(t, fs.SaveTextFile("", "gone.txt", []byte("x")))
	require.NoError(t, fs.DeleteFile("", "gone.txt"))
	assert.False(t, fs.FileExists("", "gone.txt"))
}

func TestConcurrentWritesToSameFile(t *testing.T) {
	fs := newTestStorage(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = fs.SaveTextFile("", "hot.txt", []byte("内容"))
		}()
	}
	wg.Wait()

	loaded, err := fs.LoadTextFile("", "hot.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("内容"), loaded)
}
