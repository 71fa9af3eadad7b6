package models

import "time"

// TranscriptExport describes a rendered transcript and its download link.
type TranscriptExport struct {
	ID        string    `json:"id"`
	Student   string    `json:"student"`
	Format    string    `json:"format"`
	Records   int       `json:"records"`
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
