package util

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuman(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1536, "1.50 KB"},
		{5 << 20, "5.00 MB"},
		{3 << 30, "3.00 GB"},
		{2 << 40, "2.00 TB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Human(tt.in))
	}
}

func TestCreateCBZ(t *testing.T) {
	dir := t.TempDir()

	var pages []string
	for _, name := range []string{"page_003.jpg", "page_001.jpg", "page_002.png"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(name), 0o644))
		pages = append(pages, p)
	}

	out := filepath.Join(dir, "solo_c_1.cbz")
	require.NoError(t, CreateCBZ(pages, ComicInfo{Series: "Solo", Title: "C•1"}, out))

	assert.NoFileExists(t, out+".part")

	zr, err := zip.OpenReader(out)
	require.NoError(t, err)
	t.Cleanup(func() { _ = zr.Close() })

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"page_001.jpg", "page_002.png", "page_003.jpg", "ComicInfo.xml"}, names)

	rc, err := zr.File[3].Open()
	require.NoError(t, err)
	defer rc.Close()

	meta, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Contains(t, string(meta), "<Series>Solo</Series>")
	assert.Contains(t, string(meta), "<PageCount>3</PageCount>")
}

func TestCreateCBZMissingPage(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "x.cbz")

	err := CreateCBZ([]string{filepath.Join(dir, "missing.jpg")}, ComicInfo{}, out)

	require.Error(t, err)
	assert.NoFileExists(t, out)
	assert.NoFileExists(t, out+".part")
}

func TestCleanupUnfinished(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.Mkdir(filepath.Join(dir, "c_1"+TempSuffix), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c_2.cbz.part"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c_3.cbz"), nil, 0o644))

	removed := CleanupUnfinished(dir)

	assert.Len(t, removed, 2)
	assert.FileExists(t, filepath.Join(dir, "c_3.cbz"))
	assert.False(t, RemoveIfEmpty(dir))

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(empty, 0o755))
	assert.True(t, RemoveIfEmpty(empty))
	assert.NoDirExists(t, empty)
}
