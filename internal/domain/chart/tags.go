package chart

import "fmt"

// maxTagNameLen keeps "{name} / {code}" inside the 256-character AWS
// tag value limit.
const maxTagNameLen = 245

// Tags formats the chart as AWS-tag-style strings, "{name} / {code}",
// in chart order. Names are truncated to fit the tag value limit and
// codes to their six significant digits.
func Tags(c Chart) []string {
	tags := make([]string, 0, len(c))
	for _, e := range c {
		name := e.Name
		if len(name) > maxTagNameLen {
			name = name[:maxTagNameLen]
		}
		code := e.Code
		if len(code) > shortCodeLen {
			code = code[:shortCodeLen]
		}
		tags = append(tags, fmt.Sprintf("%s / %s", name, code))
	}
	return tags
}
