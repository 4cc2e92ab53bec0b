package prompt

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/infoverif/dimascan/internal/model"
)

// The schema block embedded in prompts is generated from the json tags of
// the model result structs, so the shape described to the judge and the
// shape the fusion engine parses cannot drift apart.

// valueHints describes the expected value for each schema field, keyed by
// json tag. Fields without a hint render as a quoted string placeholder.
var valueHints = map[string]string{
	"propaganda_score": "0-100",
	"conspiracy_score": "0-100",
	"misinfo_score":    "0-100",
	"overall_risk":     "0-100",
	"dima_code":        `"TE-XX"`,
	"dima_family":      `"Nom de la famille DIMA"`,
	"name":             `"Nom de la technique"`,
	"evidence":         `"Citation exacte du contenu"`,
	"severity":         `"high/medium/low"`,
	"explanation":      `"Explication détaillée (2-3 phrases)"`,
	"claim":            `"Affirmation textuelle extraite du contenu"`,
	"confidence":       `"supported/unsupported/misleading"`,
	"issues":           `["problème 1", "problème 2"]`,
	"reasoning":        `"Explication du jugement"`,
	"summary":          `"Analyse détaillée en 3-4 phrases"`,
}

// localFields are produced by this system, never requested from the judge
var localFields = map[string]bool{
	"embedding_hints": true,
	"axis_breakdown":  true,
	"source":          true,
}

// dimaFields are omitted from the legacy (taxonomy-free) schema variant
var dimaFields = map[string]bool{
	"dima_code":   true,
	"dima_family": true,
}

// SchemaBlock renders the JSON response shape requested from the judge.
// withDima controls whether taxonomy-linkage fields are included.
func SchemaBlock(withDima bool) string {
	var b strings.Builder
	writeObject(&b, reflect.TypeOf(model.AnalysisResult{}), withDima, 0)
	return b.String()
}

// ResponseFields returns the json tags the judge is asked to produce at
// the top level. Used by tests to verify prompt/validation consistency.
func ResponseFields() []string {
	var fields []string
	t := reflect.TypeOf(model.AnalysisResult{})
	for i := 0; i < t.NumField(); i++ {
		tag := jsonTag(t.Field(i))
		if tag != "" && !localFields[tag] {
			fields = append(fields, tag)
		}
	}
	return fields
}

func writeObject(b *strings.Builder, t reflect.Type, withDima bool, depth int) {
	indent := strings.Repeat("  ", depth)
	b.WriteString("{\n")
	first := true
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := jsonTag(field)
		if tag == "" || localFields[tag] {
			continue
		}
		if !withDima && dimaFields[tag] {
			continue
		}
		if !first {
			b.WriteString(",\n")
		}
		first = false
		fmt.Fprintf(b, "%s  %q: ", indent, tag)
		writeValue(b, field.Type, tag, withDima, depth)
	}
	b.WriteString("\n" + indent + "}")
}

func writeValue(b *strings.Builder, t reflect.Type, tag string, withDima bool, depth int) {
	if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Struct {
		b.WriteString("[\n" + strings.Repeat("  ", depth+2))
		writeObject(b, t.Elem(), withDima, depth+2)
		b.WriteString("\n" + strings.Repeat("  ", depth+1) + "]")
		return
	}
	if hint, ok := valueHints[tag]; ok {
		b.WriteString(hint)
		return
	}
	b.WriteString(`"..."`)
}

func jsonTag(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return ""
	}
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	return tag
}
