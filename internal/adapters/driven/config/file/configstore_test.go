package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, ConfigFile), store.Path())
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte("this is not valid TOML {{{[["), 0o600))

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("ingest.upload_dir", "/srv/uploads"))
	require.NoError(t, store.Set("ingest.max_archive_size", int64(1<<30)))
	require.NoError(t, store.Set("ingest.dedup", true))
	require.NoError(t, store.Set("extraction.rate_per_second", 2.5))

	assert.Equal(t, "/srv/uploads", store.GetString("ingest.upload_dir"))
	assert.Equal(t, int64(1<<30), store.GetInt64("ingest.max_archive_size"))
	assert.True(t, store.GetBool("ingest.dedup"))
	assert.Equal(t, 2.5, store.GetFloat("extraction.rate_per_second"))

	assert.Equal(t, "", store.GetString("missing"))
	assert.Equal(t, 0, store.GetInt("ingest.upload_dir"))
	assert.False(t, store.GetBool("ingest.upload_dir"))
}

func TestConfigStore_WritesNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("events.subject", "mail.ingest"))
	require.NoError(t, store.Set("ingest.dedup", false))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[events]")
	assert.Contains(t, string(data), "[ingest]")
}

func TestConfigStore_ReadsHandWrittenTables(t *testing.T) {
	tmpDir := t.TempDir()
	content := "[extraction]\nrate_per_second = 4\ninterval = \"10m\"\n\n[ingest]\ndedup = true\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte(content), 0o600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 4.0, store.GetFloat("extraction.rate_per_second"))
	assert.Equal(t, "10m", store.GetString("extraction.interval"))
	assert.True(t, store.GetBool("ingest.dedup"))
	assert.Equal(t, []string{"extraction.interval", "extraction.rate_per_second", "ingest.dedup"}, store.Keys())
}

func TestConfigStore_SaveReload_PreservesData(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("storage.data_dir", "/data"))
	require.NoError(t, store.Set("ingest.max_attachment_size", int64(42)))
	require.NoError(t, store.Set("ingest.dedup", true))
	require.NoError(t, store.Set("extraction.rate_per_second", 3.14159))

	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "/data", store2.GetString("storage.data_dir"))
	assert.Equal(t, 42, store2.GetInt("ingest.max_attachment_size"))
	assert.True(t, store2.GetBool("ingest.dedup"))
	assert.InDelta(t, 3.14159, store2.GetFloat("extraction.rate_per_second"), 0.00001)
}

func TestConfigStore_ConflictingKeys(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("events", "oops"))
	assert.Error(t, store.Set("events.subject", "mail.ingest"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("k", "v"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestConfigStore_Save_WriteFileError(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("test", "value"))

	// Replace the file with a directory to cause write error
	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0o700))

	assert.Error(t, store.Set("another", "value"))
}

func TestConfigStore_SetWithUnmarshallableValue(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Set("channel", make(chan int)))
}

func TestConfigStore_Load_CommentOnly(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFile), []byte("# Just a comment\n\n"), 0o600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	_, ok := store.Get("any_key")
	assert.False(t, ok)
	assert.Empty(t, store.Keys())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("extraction.burst", int64(n))
			_ = store.GetInt("extraction.burst")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("extraction.burst")
	assert.True(t, ok)
}
