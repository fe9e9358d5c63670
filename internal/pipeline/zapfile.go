package pipeline

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadZapfile reads a zap list: a human-curated text file with one channel
// index per line (any whitespace separation is tolerated). Order is
// irrelevant and duplicates or out-of-range indices are allowed; they are
// resolved against the actual channel count later. An empty path yields an
// empty list.
func LoadZapfile(path string) ([]int, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading zapfile: %w", err)
	}
	var channels []int
	for _, field := range strings.Fields(string(raw)) {
		ichan, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf(
				"zapfile %s: bad channel index %q", path, field)
		}
		channels = append(channels, ichan)
	}
	return channels, nil
}
