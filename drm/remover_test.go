package drm

import (
	"archive/zip"
	"bytes"
	"crypto/aes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemover_Remove(t *testing.T) {
	const (
		deviceId = "device-1234"
		userId   = "user-5678"
		chapter  = "plain text of chapter one"
	)
	contentKey := []byte("0123456789abcdef")

	dir := t.TempDir()
	inputPath := filepath.Join(dir, "book.kepub")
	outputPath := filepath.Join(dir, "book.epub")

	encrypted := encryptECB(t, contentKey, pad([]byte(chapter)))
	wrappedKey := encryptECB(t, deviceKey(deviceId, userId), contentKey)

	writeArchive(t, inputPath, map[string][]byte{
		"mimetype":           []byte("application/epub+zip"),
		"chapter1.html":      encrypted,
		"META-INF/plain.xml": []byte("<container/>"),
	})

	remover := NewRemover(deviceId, userId)
	err := remover.Remove(inputPath, outputPath, map[string]string{
		"chapter1.html": base64.StdEncoding.EncodeToString(wrappedKey),
	})
	require.NoError(t, err)

	entries, methods := readArchive(t, outputPath)
	assert.Equal(t, chapter, string(entries["chapter1.html"]))
	assert.Equal(t, "<container/>", string(entries["META-INF/plain.xml"]))
	assert.Equal(t, "application/epub+zip", string(entries["mimetype"]))
	assert.Equal(t, zip.Store, methods["mimetype"])
	assert.Equal(t, zip.Deflate, methods["chapter1.html"])
}

func TestRemover_RemoveInvalidKey(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "book.kepub")
	writeArchive(t, inputPath, map[string][]byte{"chapter1.html": []byte("0123456789abcdef")})

	remover := NewRemover("device", "user")
	err := remover.Remove(inputPath, filepath.Join(dir, "book.epub"), map[string]string{
		"chapter1.html": "not base64 !!!",
	})
	assert.Error(t, err)
}

func deviceKey(deviceId, userId string) []byte {
	digest := sha256.Sum256([]byte(deviceId + userId))
	key, _ := hex.DecodeString(hex.EncodeToString(digest[:])[32:])
	return key
}

func encryptECB(t *testing.T, key, data []byte) []byte {
	t.Helper()
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	result := make([]byte, len(data))
	for offset := 0; offset < len(data); offset += block.BlockSize() {
		block.Encrypt(result[offset:], data[offset:offset+block.BlockSize()])
	}
	return result
}

func pad(data []byte) []byte {
	padding := aes.BlockSize - len(data)%aes.BlockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func writeArchive(t *testing.T, location string, entries map[string][]byte) {
	t.Helper()
	output, err := os.Create(location)
	require.NoError(t, err)
	defer output.Close()
	writer := zip.NewWriter(output)
	for name, contents := range entries {
		dest, err := writer.Create(name)
		require.NoError(t, err)
		_, err = dest.Write(contents)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
}

func readArchive(t *testing.T, location string) (map[string][]byte, map[string]uint16) {
	t.Helper()
	reader, err := zip.OpenReader(location)
	require.NoError(t, err)
	defer reader.Close()
	entries := map[string][]byte{}
	methods := map[string]uint16{}
	for _, entry := range reader.File {
		source, err := entry.Open()
		require.NoError(t, err)
		contents, err := io.ReadAll(source)
		require.NoError(t, err)
		_ = source.Close()
		entries[entry.Name] = contents
		methods[entry.Name] = entry.Method
	}
	return entries, methods
}
