package nameparse

import (
	"regexp"
	"strings"
)

// workGroupPatterns classify auto-generated LMS sub-entities (student groups,
// teams, numbered sections) that are not real course offerings. Evaluated
// top to bottom, first match wins. Kept as data so each pattern can be tested
// on its own.
var workGroupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^group\s+\d+$`),
	regexp.MustCompile(`(?i)^grupo\s+\d+$`),
	regexp.MustCompile(`(?i)^team\s+\d+$`),
	regexp.MustCompile(`(?i)^equipo\s+\d+$`),
	regexp.MustCompile(`(?i)^section\s+\d+$`),
	regexp.MustCompile(`(?i)^sección\s+\d+$`),
	regexp.MustCompile(`(?i)^equipo\s+\d+\s*-`),
	regexp.MustCompile(`(?i)^team\s+\d+\s*-`),
	regexp.MustCompile(`(?i)^grupo\s+\d+\s*-`),
	regexp.MustCompile(`(?i)^h\d+\s+\d+$`),
	regexp.MustCompile(`(?i)^\d+\.\w+\.[a-z0-9\-]+\.\w+\.\w+\.\d+\s+\d+$`),
	regexp.MustCompile(`(?i)^(profe|profesor|profesora|teacher|docente)\s+\w+\s+\d+$`),
	regexp.MustCompile(`(?i)^grupo\s+(profe|profesor|profesora)\s+\w+(\s+\w+)?\s+\d+$`),
	regexp.MustCompile(`(?i)^actividad\s+\d+\s+\d+$`),
	regexp.MustCompile(`(?i)^activity\s+\d+\s+\d+$`),
	regexp.MustCompile(`(?i)^tarea\s+\d+\s+\d+$`),
	regexp.MustCompile(`(?i)^assignment\s+\d+\s+\d+$`),
	regexp.MustCompile(`(?i)^\d+\s+\d+$`),
	regexp.MustCompile(`(?i)^\d+\.\s*\d+$`),
	regexp.MustCompile(`^\d+$`),
}

// IsWorkGroupPlaceholder reports whether a class title is an auto-generated
// work-group/section placeholder that must be excluded from sync.
func IsWorkGroupPlaceholder(title string) bool {
	title = strings.TrimSpace(title)
	for _, re := range workGroupPatterns {
		if re.MatchString(title) {
			return true
		}
	}
	return false
}
