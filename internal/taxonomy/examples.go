package taxonomy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/infoverif/dimascan/internal/model"
)

// exampleFile is the on-disk shape of one technique's example bank entry,
// named <CODE>_<slug>.json under the examples directory.
type exampleFile struct {
	Examples []model.TechniqueExample `json:"examples"`
}

// Examples loads up to n curated exemplars for a technique code.
// Absence of an example file for a code is expected and yields nil.
func (s *Store) Examples(code string, n int) []model.TechniqueExample {
	if _, ok := s.techniques[code]; !ok {
		return nil
	}
	if s.examplesDir == "" || n <= 0 {
		return nil
	}

	matches, err := filepath.Glob(filepath.Join(s.examplesDir, code+"_*.json"))
	if err != nil || len(matches) == 0 {
		return nil
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: reading examples for %s: %v\n", code, err)
		return nil
	}

	var file exampleFile
	if err := json.Unmarshal(data, &file); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: parsing examples for %s: %v\n", code, err)
		return nil
	}

	if len(file.Examples) > n {
		return file.Examples[:n]
	}
	return file.Examples
}
