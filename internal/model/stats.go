package model

// SystemStats is the dashboard overview aggregate.
type SystemStats struct {
	TotalTerms          int     `json:"total_terms"`
	TotalClasses        int     `json:"total_classes"`
	ClassesWithSyllabus int     `json:"classes_with_syllabus"`
	ClassesNoSyllabus   int     `json:"classes_no_syllabus"`
	AverageFinalGrade   float64 `json:"average_final_grade"`
	TotalDocuments      int     `json:"total_documents"`
	LastSync            string  `json:"last_sync"`
}
