package model

import "time"

// Term represents an academic period (semester) mirrored from Brightspace.
type Term struct {
	ID        int       `json:"id"`
	OrgUnitID int       `json:"org_unit_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	UpdatedAt time.Time `json:"updated_at"`
}
