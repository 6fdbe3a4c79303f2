// Package nameparse extracts structured fields from freeform Brightspace
// course titles and classifies auto-generated work-group placeholders.
// Everything here is pure string matching: no I/O, no errors — inputs that
// match nothing yield empty results.
package nameparse

import (
	"regexp"
	"strings"
)

// Registration-code patterns, tried in order. A title like
// "25.S3.ADM.3410) - Databases" or "... (3410) ..." carries the code as a
// 4-digit group.
var (
	reRegCodeParens   = regexp.MustCompile(`\((\d{4})\)`)
	reRegCodeDash     = regexp.MustCompile(`\.(\d{4})\s*-`)
	reRegCodeTrailing = regexp.MustCompile(`\.(\d{4})(?:\s|$)`)

	reProgramCode = regexp.MustCompile(`\d+\.S\d+\.([A-Z]+)-?\d+`)
	reModuleCode  = regexp.MustCompile(`\.[A-Z]{2}\.([A-C])\.\d{4}`)

	reDisplayName = regexp.MustCompile(`\d+\.S\d+\.[A-Z]+\d+\.[^-]+-\s*(.+)`)
)

// ExtractRegistrationCode pulls the 4-digit registration code (NRC) out of a
// full class name. Falls back to the segment before the first " - " when no
// numeric pattern matches.
func ExtractRegistrationCode(name string) string {
	name = strings.TrimSpace(name)

	for _, re := range []*regexp.Regexp{reRegCodeParens, reRegCodeDash, reRegCodeTrailing} {
		if m := re.FindStringSubmatch(name); m != nil {
			return m[1]
		}
	}

	before, _, _ := strings.Cut(name, " - ")
	return strings.TrimSpace(before)
}

// ExtractProgramCode returns the uppercase program code embedded in names
// shaped like "25.S3.ADM-4010 - ...", or "" when absent.
func ExtractProgramCode(name string) string {
	if m := reProgramCode.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return ""
}

// ExtractModuleCode returns the module letter (A, B or C) preceding the
// registration code, or "" when absent.
func ExtractModuleCode(name string) string {
	if m := reModuleCode.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return ""
}

// CleanDisplayName strips the leading period/program prefix from a full class
// name, leaving the human-readable course title. Names without the prefix are
// returned unchanged.
func CleanDisplayName(name string) string {
	if m := reDisplayName.FindStringSubmatch(name); m != nil {
		return strings.TrimSpace(m[1])
	}
	return name
}
