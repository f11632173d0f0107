package workspace

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// DefaultBatchSize is the number of galaxies stored per numbered folder.
const DefaultBatchSize = 1000

// DefaultNumberedNames are the per-batch folder prefixes jeditransform and
// jedidistort write into.
var DefaultNumberedNames = []string{"stamp_", "distorted_"}

// Reset removes path if it exists and recreates it, including parents.
// Returns true when a previous directory was replaced.
func Reset(path string) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, errors.New("reset: empty path")
	}
	replaced := false
	if _, err := os.Lstat(path); err == nil {
		replaced = true
		if err := os.RemoveAll(path); err != nil {
			return false, fmt.Errorf("remove %q: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat %q: %w", path, err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return replaced, fmt.Errorf("create %q: %w", path, err)
	}
	return replaced, nil
}

// EnsureNumbered creates base+name+i for every name and i in [0,count) that
// does not already exist. Existing folders are left untouched. When names is
// empty DefaultNumberedNames is used.
func EnsureNumbered(base string, count int, names ...string) error {
	if count < 0 {
		return fmt.Errorf("ensure numbered: negative count %d", count)
	}
	if len(names) == 0 {
		names = DefaultNumberedNames
	}
	for i := 0; i < count; i++ {
		for _, name := range names {
			dir := base + name + strconv.Itoa(i)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create %q: %w", dir, err)
			}
		}
	}
	return nil
}

// BatchCount returns ceil(numGalaxies / batchSize). numGalaxies is parsed as
// a float so values such as "12420.0" are accepted.
func BatchCount(numGalaxies string, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(numGalaxies), 64)
	if err != nil {
		return 0, fmt.Errorf("parse num_galaxies %q: %w", numGalaxies, err)
	}
	if n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("num_galaxies must be a non-negative number, got %q", numGalaxies)
	}
	return int(math.Ceil(n / float64(batchSize))), nil
}
