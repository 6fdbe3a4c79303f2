package model

// Program represents an academic program (major/track). Programs are
// maintained by an admin workflow; the sync engine only reads them.
type Program struct {
	ID     int    `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}
