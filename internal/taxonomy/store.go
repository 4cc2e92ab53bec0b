package taxonomy

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/infoverif/dimascan/internal/model"
)

// Store holds the DIMA technique catalog, immutable after Load.
// Safe for unbounded concurrent readers.
type Store struct {
	techniques  map[string]model.Technique
	families    map[string][]string // codes in catalog insertion order
	familyOrder []string
	examplesDir string
}

// requiredColumns must be present in the catalog header.
// infoverif_secondary is the only optional column.
var requiredColumns = []string{
	"dima_code",
	"technique_name_fr",
	"technique_name_en",
	"dima_family",
	"infoverif_primary",
	"weight_I_p",
	"weight_N_s",
	"weight_F_f",
	"semantic_features",
	"example_keywords",
}

// Load reads the technique catalog from a CSV file.
// A missing file degrades to an empty store (taxonomy-aware features
// disable themselves); a structurally invalid file is an error.
func Load(mappingPath, examplesDir string) (*Store, error) {
	s := &Store{
		techniques:  make(map[string]model.Technique),
		families:    make(map[string][]string),
		examplesDir: examplesDir,
	}

	f, err := os.Open(mappingPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: taxonomy catalog not found at %s (taxonomy features disabled)\n", mappingPath)
			return s, nil
		}
		return nil, fmt.Errorf("open taxonomy catalog: %w", err)
	}
	defer f.Close()

	if err := s.parse(f); err != nil {
		return nil, fmt.Errorf("parse taxonomy catalog %s: %w", mappingPath, err)
	}

	return s, nil
}

func (s *Store) parse(r io.Reader) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return fmt.Errorf("missing required column %q", name)
		}
	}

	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read record: %w", err)
		}
		line++

		code := field(record, "dima_code")
		if code == "" {
			return fmt.Errorf("line %d: empty dima_code", line)
		}
		if _, exists := s.techniques[code]; exists {
			return fmt.Errorf("line %d: duplicate dima_code %q", line, code)
		}

		weights, err := parseWeights(
			field(record, "weight_I_p"),
			field(record, "weight_N_s"),
			field(record, "weight_F_f"),
		)
		if err != nil {
			return fmt.Errorf("line %d (%s): %w", line, code, err)
		}

		tech := model.Technique{
			Code:             code,
			NameFR:           field(record, "technique_name_fr"),
			NameEN:           field(record, "technique_name_en"),
			Family:           field(record, "dima_family"),
			PrimaryAxis:      model.Axis(field(record, "infoverif_primary")),
			SecondaryAxis:    model.Axis(field(record, "infoverif_secondary")),
			Weights:          weights,
			SemanticFeatures: field(record, "semantic_features"),
			ExampleKeywords:  field(record, "example_keywords"),
		}

		s.techniques[code] = tech
		if _, seen := s.families[tech.Family]; !seen {
			s.familyOrder = append(s.familyOrder, tech.Family)
		}
		s.families[tech.Family] = append(s.families[tech.Family], code)
	}

	return nil
}

func parseWeights(ip, ns, ff string) (model.AxisWeights, error) {
	var w model.AxisWeights
	var err error
	if w.Persuasion, err = strconv.ParseFloat(ip, 64); err != nil {
		return w, fmt.Errorf("invalid weight_I_p %q", ip)
	}
	if w.Speculation, err = strconv.ParseFloat(ns, 64); err != nil {
		return w, fmt.Errorf("invalid weight_N_s %q", ns)
	}
	if w.Factual, err = strconv.ParseFloat(ff, 64); err != nil {
		return w, fmt.Errorf("invalid weight_F_f %q", ff)
	}
	return w, nil
}

// Get returns a technique by DIMA code
func (s *Store) Get(code string) (model.Technique, bool) {
	t, ok := s.techniques[code]
	return t, ok
}

// FamilyTechniques returns the technique codes of a family in catalog order
func (s *Store) FamilyTechniques(family string) []string {
	return s.families[family]
}

// AllFamilies returns family names in catalog order
func (s *Store) AllFamilies() []string {
	return s.familyOrder
}

// Codes returns all technique codes sorted lexicographically.
// The embedding index relies on this ordering being deterministic.
func (s *Store) Codes() []string {
	codes := make([]string, 0, len(s.techniques))
	for code := range s.techniques {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Size returns the number of loaded techniques
func (s *Store) Size() int {
	return len(s.techniques)
}

// Empty reports whether the catalog failed to load or had no rows
func (s *Store) Empty() bool {
	return len(s.techniques) == 0
}

// Stats returns taxonomy statistics
func (s *Store) Stats() model.TaxonomyStats {
	byFamily := make(map[string]int, len(s.families))
	for family, codes := range s.families {
		byFamily[family] = len(codes)
	}
	return model.TaxonomyStats{
		TotalTechniques:    len(s.techniques),
		TotalFamilies:      len(s.families),
		TechniquesByFamily: byFamily,
	}
}

// CodeForName finds a DIMA code by technique name, exact match first,
// then substring match. Used to link judge output that names a technique
// without citing its code.
func (s *Store) CodeForName(name string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return "", false
	}

	for _, code := range s.Codes() {
		t := s.techniques[code]
		if strings.ToLower(t.NameFR) == needle || strings.ToLower(t.NameEN) == needle {
			return code, true
		}
	}
	for _, code := range s.Codes() {
		t := s.techniques[code]
		if strings.Contains(strings.ToLower(t.NameFR), needle) || strings.Contains(strings.ToLower(t.NameEN), needle) {
			return code, true
		}
	}
	return "", false
}
