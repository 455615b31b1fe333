package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestSaveAndList(t *testing.T) {
	store, err := NewStore(t.TempDir(), 24, testLogger())
	require.NoError(t, err)

	stored, err := store.Save("report.xml.gz", strings.NewReader("payload"))
	require.NoError(t, err)

	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, "report.xml.gz", stored.OriginalName)
	assert.Equal(t, int64(7), stored.Size)

	files, err := store.List()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "report.xml.gz", files[0].OriginalName)
	assert.Equal(t, stored.ID, files[0].ID)
}

func TestSaveCollidingNames(t *testing.T) {
	store, err := NewStore(t.TempDir(), 24, testLogger())
	require.NoError(t, err)

	a, err := store.Save("report.xml", strings.NewReader("first"))
	require.NoError(t, err)
	b, err := store.Save("report.xml", strings.NewReader("second"))
	require.NoError(t, err)

	assert.NotEqual(t, a.Path, b.Path, "identical upload names must not collide")

	files, err := store.List()
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestSweepRemovesExpired(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 1, testLogger())
	require.NoError(t, err)

	fresh, err := store.Save("fresh.xml", strings.NewReader("keep"))
	require.NoError(t, err)
	stale, err := store.Save("stale.xml", strings.NewReader("drop"))
	require.NoError(t, err)

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale.Path, old, old))

	store.Sweep()

	_, err = os.Stat(stale.Path)
	assert.True(t, os.IsNotExist(err), "expired upload must be removed")
	_, err = os.Stat(fresh.Path)
	assert.NoError(t, err, "fresh upload must survive the sweep")
}

func TestSweepIgnoresSubdirectories(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 1, testLogger())
	require.NoError(t, err)

	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0755))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(sub, old, old))

	store.Sweep()

	_, err = os.Stat(sub)
	assert.NoError(t, err)
}
