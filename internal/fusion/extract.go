package fusion

import "strings"

// ExtractJSON defensively pulls the JSON object out of a raw judge
// response: markdown code fences are stripped, then the text between the
// first '{' and the last '}' is returned. Judges in JSON mode usually
// return clean output, but fenced or chatty responses still occur.
func ExtractJSON(raw string) (string, error) {
	content := strings.TrimSpace(raw)

	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) > 0 && strings.HasPrefix(lines[0], "```") {
			lines = lines[1:]
		}
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
			lines = lines[:len(lines)-1]
		}
		content = strings.TrimSpace(strings.Join(lines, "\n"))
	}

	first := strings.Index(content, "{")
	last := strings.LastIndex(content, "}")
	if first == -1 || last == -1 || last < first {
		return "", &ParseError{
			Reason: "no JSON object found in response",
			Raw:    rawExcerpt(raw),
		}
	}

	return content[first : last+1], nil
}
