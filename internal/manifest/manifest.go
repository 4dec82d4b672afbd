// Package manifest tracks per-source content hashes for incremental
// indexing.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rag-engine/ragctl/internal/errors"
)

// Manifest maps absolute source path to the SHA-256 hash of its contents
// at last successful index.
type Manifest map[string]string

const fileName = ".manifest.json"

// Load reads the manifest from <indexDir>/.manifest.json, returning an
// empty Manifest when the file does not exist.
func Load(indexDir string) (Manifest, error) {
	path := filepath.Join(indexDir, fileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, nil
		}
		return nil, errors.InternalError("read manifest: " + err.Error())
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.InternalError("parse manifest: " + err.Error())
	}
	return m, nil
}

// Save writes the manifest atomically (temp file + rename) so a crash
// mid-write never leaves a corrupt or half-updated manifest on disk.
func Save(indexDir string, m Manifest) error {
	path := filepath.Join(indexDir, fileName)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.InternalError("encode manifest: " + err.Error())
	}
	tmp, err := os.CreateTemp(indexDir, ".manifest.json.tmp-*")
	if err != nil {
		return errors.InternalError("create manifest temp file: " + err.Error())
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.InternalError("write manifest: " + err.Error())
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.InternalError("close manifest temp file: " + err.Error())
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.InternalError("rename manifest: " + err.Error())
	}
	return nil
}

// HashFile computes the SHA-256 hex digest of a file's bytes.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.SourceMissing(path)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Unchanged reports whether path's current contents match the manifest's
// recorded hash for it.
func (m Manifest) Unchanged(path string) (bool, error) {
	recorded, ok := m[path]
	if !ok {
		return false, nil
	}
	current, err := HashFile(path)
	if err != nil {
		return false, err
	}
	return recorded == current, nil
}
