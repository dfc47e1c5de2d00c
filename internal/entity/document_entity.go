package entity

import "time"

// DocumentHandle identifies one revision of the working document. A successful
// mutating command produces a new handle that supersedes the previous one;
// handles are never mutated in place.
type DocumentHandle struct {
	DocumentId string    `json:"document_id"`
	Filename   string    `json:"filename"`
	CreatedAt  time.Time `json:"created_at"`
}
