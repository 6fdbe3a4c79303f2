package model

import "time"

// Syllabus-presence states for a class. PENDIENTE means the detail fetch has
// not happened yet; it doubles as the staleness trigger for new rows.
const (
	SyllabusPending = "PENDIENTE"
	SyllabusYes     = "SI"
	SyllabusNo      = "NO"
)

// Welcome-announcement states.
const (
	WelcomeYes = "SI"
	WelcomeNo  = "NO"
)

// Class represents a single course-section offering within a term.
// OrgUnitID is the upstream natural key: re-syncing the same org unit must
// update the existing row, never create a duplicate.
type Class struct {
	ID               int       `json:"id"`
	OrgUnitID        int       `json:"org_unit_id"`
	TermID           int       `json:"term_id"`
	ProgramID        *int      `json:"program_id,omitempty"`
	RegistrationCode string    `json:"registration_code"`
	FullName         string    `json:"full_name"`
	CourseCode       string    `json:"course_code"`
	HasSyllabus      string    `json:"has_syllabus"`
	FinalGrade       float64   `json:"final_grade"`
	DocumentCount    int       `json:"document_count"`
	HasWelcome       string    `json:"has_welcome"`
	UpdatedAt        time.Time `json:"updated_at"`

	// DisplayName is the cleaned course title, derived on read; never stored.
	DisplayName string `json:"display_name,omitempty"`

	// Joined program columns, populated by the read path only.
	ProgramCode *string `json:"program_code,omitempty"`
	ProgramName *string `json:"program_name,omitempty"`
}

// ClassDetail holds the derived per-class fields written back after a
// detail refresh.
type ClassDetail struct {
	HasSyllabus   string
	FinalGrade    float64
	DocumentCount int
	HasWelcome    string
}

// NewClassDetail returns the defaults used when every detail fetch fails:
// syllabus stays pending so the next run retries the class.
func NewClassDetail() ClassDetail {
	return ClassDetail{
		HasSyllabus: SyllabusPending,
		HasWelcome:  WelcomeNo,
	}
}
