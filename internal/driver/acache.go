package driver

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"ember/internal/abi"
	"ember/internal/project"
)

// cacheSchemaVersion invalidates stale payloads when the format
// changes.
const cacheSchemaVersion uint16 = 1

// ArtifactCache stores successful compilation results on disk, keyed
// by a digest of the unit's sources. Safe for concurrent use.
type ArtifactCache struct {
	mu  sync.RWMutex
	dir string
}

// CachePayload is the serialized form of a cached artifact.
type CachePayload struct {
	Schema   uint16
	Bytecode []byte
	ABIJSON  []byte
}

// Descriptor decodes the cached ABI. Nil when the payload predates
// the current schema or holds no ABI.
func (p *CachePayload) Descriptor() *abi.Descriptor {
	if p == nil || p.Schema != cacheSchemaVersion || len(p.ABIJSON) == 0 {
		return nil
	}
	var d abi.Descriptor
	if err := json.Unmarshal(p.ABIJSON, &d); err != nil {
		return nil
	}
	return &d
}

// OpenArtifactCache initializes a cache at the standard user cache
// location.
func OpenArtifactCache(app string) (*ArtifactCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenArtifactCacheAt(filepath.Join(base, app))
}

// OpenArtifactCacheAt initializes a cache rooted at dir.
func OpenArtifactCacheAt(dir string) (*ArtifactCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ArtifactCache{dir: dir}, nil
}

func (c *ArtifactCache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "units", hex.EncodeToString(key[:])+".mp")
}

// Put serializes and atomically writes a payload.
func (c *ArtifactCache) Put(key project.Digest, payload *CachePayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a payload. The first result is false on a miss.
func (c *ArtifactCache) Get(key project.Digest, out *CachePayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	if out.Schema != cacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// cacheKey digests a unit's identity and sources.
func cacheKey(in CompileInput) (project.Digest, error) {
	name := ""
	if in.Manifest != nil {
		name = in.Manifest.Package.Name + ":" + in.Manifest.Package.Kind
	}
	deps := make([]project.Digest, 0, len(in.Files))
	for _, src := range in.Files {
		content := src.Content
		if content == nil {
			data, err := os.ReadFile(src.Path) // #nosec G304 -- caller-provided path
			if err != nil {
				return project.Digest{}, fmt.Errorf("hash %s: %w", src.Path, err)
			}
			content = data
		}
		deps = append(deps, project.HashBytes(content))
	}
	return project.Combine(project.HashBytes([]byte(name)), deps...), nil
}

func checkCache(c *ArtifactCache, in CompileInput) (project.Digest, *CachePayload, error) {
	if c == nil {
		return project.Digest{}, nil, nil
	}
	key, err := cacheKey(in)
	if err != nil {
		return key, nil, err
	}
	var payload CachePayload
	ok, err := c.Get(key, &payload)
	if err != nil || !ok {
		return key, nil, err
	}
	return key, &payload, nil
}

func storeCache(c *ArtifactCache, key project.Digest, art *Artifacts) error {
	if c == nil || art.Bytecode == nil || art.ABI == nil {
		return nil
	}
	abiJSON, err := art.ABI.JSON()
	if err != nil {
		return err
	}
	return c.Put(key, &CachePayload{
		Schema:   cacheSchemaVersion,
		Bytecode: art.Bytecode,
		ABIJSON:  abiJSON,
	})
}
