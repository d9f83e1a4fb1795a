package cache

import (
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/modcycle/modcycle/pkg/module"
)

// Strategy selects how file change fingerprints are computed
type Strategy string

const (
	// StrategyMtime fingerprints with modification time and size. Cheap, and
	// good enough outside of clock-skewed filesystems.
	StrategyMtime Strategy = "mtime"
	// StrategyContent fingerprints with an XXHash of the file bytes. Costs a
	// full read but survives mtime-preserving rewrites.
	StrategyContent Strategy = "content"
)

// Valid reports whether s names a known strategy
func (s Strategy) Valid() bool {
	return s == StrategyMtime || s == StrategyContent
}

// fingerprint computes the current on-disk fingerprint for a module
func fingerprint(id module.Identity, strategy Strategy) (module.Fingerprint, error) {
	info, err := os.Stat(id)
	if err != nil {
		return module.Fingerprint{}, err
	}

	fp := module.Fingerprint{
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}

	if strategy == StrategyContent {
		hash, err := hashFile(id)
		if err != nil {
			return module.Fingerprint{}, err
		}
		// Content is authoritative; drop mtime so a touch without a change
		// does not invalidate the entry
		fp = module.Fingerprint{Size: info.Size(), Hash: hash}
	}

	return fp, nil
}

// hashFile computes the XXHash of a file's content
func hashFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, err
	}
	return hasher.Sum64(), nil
}
