// Package drm removes Kobo KDRM protection from downloaded epub archives.
//
// KDRM encrypts each archive entry with AES-128-ECB. The per-entry content
// key is itself encrypted with a key derived from the device and user ids,
// so removal only needs the content key map from the content access
// endpoint, the device id and the user id.
package drm

import (
	"archive/zip"
	"crypto/aes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Remover decrypts KDRM protected archives for a single device and user.
type Remover struct {
	deviceKey []byte
}

// NewRemover derives the device key used to unwrap content keys. The key is
// the second half of the hex encoded SHA-256 digest of deviceId + userId.
func NewRemover(deviceId, userId string) *Remover {
	digest := sha256.Sum256([]byte(deviceId + userId))
	encoded := hex.EncodeToString(digest[:])
	key, _ := hex.DecodeString(encoded[32:])
	return &Remover{deviceKey: key}
}

// Remove rewrites the archive at inputPath to outputPath, decrypting every
// entry present in contentKeys. Entries without a content key are copied
// unchanged. The epub mimetype entry is stored uncompressed as required by
// the container format.
func (r *Remover) Remove(inputPath, outputPath string, contentKeys map[string]string) error {
	reader, err := zip.OpenReader(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open %v: %w", inputPath, err)
	}
	defer reader.Close()

	output, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer output.Close()
	writer := zip.NewWriter(output)

	for _, entry := range reader.File {
		contents, err := readEntry(entry)
		if err != nil {
			return fmt.Errorf("failed to read entry %v: %w", entry.Name, err)
		}
		if contentKey, ok := contentKeys[entry.Name]; ok {
			if contents, err = r.decrypt(contents, contentKey); err != nil {
				return fmt.Errorf("failed to decrypt entry %v: %w", entry.Name, err)
			}
		}
		method := zip.Deflate
		if entry.Name == "mimetype" {
			method = zip.Store
		}
		dest, err := writer.CreateHeader(&zip.FileHeader{Name: entry.Name, Method: method})
		if err != nil {
			return err
		}
		if _, err = dest.Write(contents); err != nil {
			return err
		}
	}
	return writer.Close()
}

// decrypt unwraps the base64 content key with the device key, then decrypts
// the entry contents with the unwrapped key and strips PKCS#7 padding. Both
// stages use AES in ECB mode.
func (r *Remover) decrypt(contents []byte, contentKeyBase64 string) ([]byte, error) {
	contentKey, err := base64.StdEncoding.DecodeString(contentKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("invalid content key: %w", err)
	}
	decryptedKey, err := decryptECB(r.deviceKey, contentKey)
	if err != nil {
		return nil, err
	}
	decrypted, err := decryptECB(decryptedKey, contents)
	if err != nil {
		return nil, err
	}
	return unpad(decrypted)
}

func decryptECB(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(data)%block.BlockSize() != 0 {
		return nil, fmt.Errorf("ciphertext length %v is not a multiple of the block size", len(data))
	}
	result := make([]byte, len(data))
	for offset := 0; offset < len(data); offset += block.BlockSize() {
		block.Decrypt(result[offset:], data[offset:offset+block.BlockSize()])
	}
	return result, nil
}

func unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decrypted content is empty")
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > aes.BlockSize || padding > len(data) {
		return nil, fmt.Errorf("invalid padding length %v", padding)
	}
	for _, value := range data[len(data)-padding:] {
		if int(value) != padding {
			return nil, fmt.Errorf("malformed padding")
		}
	}
	return data[:len(data)-padding], nil
}

func readEntry(entry *zip.File) ([]byte, error) {
	source, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer source.Close()
	return io.ReadAll(source)
}
