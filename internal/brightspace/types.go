package brightspace

// OrgUnit is a Brightspace org structure node: a semester when listing the
// root's descendants, a course offering when listing a semester's.
// Identifier arrives as a JSON string.
type OrgUnit struct {
	Identifier string `json:"Identifier"`
	Name       string `json:"Name"`
	Code       string `json:"Code"`
}

// ContentTree is the table of contents of a course.
type ContentTree struct {
	Modules []ContentModule `json:"Modules"`
}

// ContentModule is one top-level module with its topics.
type ContentModule struct {
	Title  string         `json:"Title"`
	Topics []ContentTopic `json:"Topics"`
}

// ContentTopic is a single entry inside a module. TypeIdentifier is "File"
// for uploaded documents.
type ContentTopic struct {
	Title          string `json:"Title"`
	TypeIdentifier string `json:"TypeIdentifier"`
}

// GradeItem is one entry of a course's grade book.
type GradeItem struct {
	ID                               int64   `json:"Id"`
	Name                             string  `json:"Name"`
	MaxPoints                        float64 `json:"MaxPoints"`
	CategoryID                       int64   `json:"CategoryId"`
	GradeType                        string  `json:"GradeType"`
	IsBonus                          bool    `json:"IsBonus"`
	ExcludeFromFinalGradeCalculation bool    `json:"ExcludeFromFinalGradeCalculation"`
}

// GradeCategory groups grade items; a category can be excluded from the
// final grade as a whole.
type GradeCategory struct {
	ID                    int64  `json:"Id"`
	Name                  string `json:"Name"`
	ExcludeFromFinalGrade bool   `json:"ExcludeFromFinalGrade"`
}

// Announcement is a course news item; only the title matters here.
type Announcement struct {
	Title string `json:"Title"`
}

// pagingInfo mirrors the X-Paging-Info response header payload.
type pagingInfo struct {
	HasMoreItems bool   `json:"HasMoreItems"`
	Bookmark     string `json:"Bookmark"`
}
