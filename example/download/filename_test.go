package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHead = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}

func TestGetMimeFilename(t *testing.T) {
	assert.Equal(t, "report.pdf", getMimeFilename(`attachment; filename="report.pdf"`))
	assert.Equal(t, "", getMimeFilename("attachment"))
	assert.Equal(t, "", getMimeFilename(""))
}

func TestGetUriFilename(t *testing.T) {
	assert.Equal(t, "go1.21.0.tar.gz", getUriFilename("https://example.com/dl/go1.21.0.tar.gz?x=1"))
	assert.Equal(t, "", getUriFilename("https://example.com/"))
	assert.Equal(t, "", getUriFilename("https://example.com"))
}

func TestRandomString(t *testing.T) {
	assert.Equal(t, "", randomString(0, 0))
	for kind, chars := range map[int]string{
		0: "0123456789",
		1: "abcdefghijklmnopqrstuvwxyz",
		2: "ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	} {
		s := randomString(32, kind)
		assert.Len(t, s, 32)
		for _, r := range s {
			assert.True(t, strings.ContainsRune(chars, r), "kind %d: %q", kind, s)
		}
	}
	assert.Len(t, randomString(16, 3), 16)
}

func TestFilterFileName(t *testing.T) {
	assert.Equal(t, "ab.txt", filterFileName(`  a?b*<>|:".txt`))
	assert.Equal(t, "tab.txt", filterFileName("\t tab.txt"))
	assert.Equal(t, "a b", filterFileName("a b"))
	assert.Equal(t, 255, len([]rune(filterFileName(strings.Repeat("文", 300)))))
}

func TestDetectExtension(t *testing.T) {
	assert.Equal(t, "png", detectExtension(pngHead))
	assert.Equal(t, "", detectExtension([]byte("plain text")))
	assert.Equal(t, "", detectExtension(nil))

	assert.Equal(t, "cover.png", withExtension("cover", pngHead))
	assert.Equal(t, "cover.jpg", withExtension("cover.jpg", pngHead))
	assert.Equal(t, "cover", withExtension("cover", []byte("plain text")))
}

func TestAutoFileRenaming(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.1.txt"), nil, 0o644))

	path, name := autoFileRenaming(dir, "a.txt")
	assert.Equal(t, "a.2.txt", name)
	assert.Equal(t, filepath.Join(dir, "a.2.txt"), path)
	assert.True(t, fileExist(filepath.Join(dir, "a.1.txt")))
	assert.False(t, fileExist(path))
}

func TestResourceInfoFilename(t *testing.T) {
	info := &resourceInfo{uri: "https://example.com/a/b.zip", contentDisposition: `attachment; filename="c.zip"`}
	assert.Equal(t, "c.zip", info.getFilename())

	info.contentDisposition = ""
	assert.Equal(t, "b.zip", info.getFilename())

	info.uri = "https://example.com/"
	assert.True(t, strings.HasPrefix(info.getFilename(), "file_"))
}
