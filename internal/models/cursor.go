package models

// Cursor describes a page of a sequence-ordered listing. Next is the value
// to pass as `after` to fetch the following page.
type Cursor struct {
	After uint64 `json:"after"`
	Next  uint64 `json:"next"`
	Limit int    `json:"limit"`
	Count int    `json:"count"`
}
