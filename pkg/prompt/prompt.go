// Package prompt loads prompt fragment files and combines them into a
// single generation prompt.
package prompt

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strings"
)

// Load reads a prompt file: a JSON array of fragment sets, each a list of
// interchangeable strings.
func Load(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file: %w", err)
	}

	var sets [][]string
	if err := json.Unmarshal(data, &sets); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", path, err)
	}
	return sets, nil
}

// Build picks one fragment uniformly at random from each set and joins
// them with spaces. Empty sets are skipped.
func Build(sets [][]string, rng *rand.Rand) string {
	parts := make([]string, 0, len(sets))
	for _, fragments := range sets {
		if len(fragments) == 0 {
			continue
		}
		parts = append(parts, fragments[rng.Intn(len(fragments))])
	}
	return strings.Join(parts, " ")
}
