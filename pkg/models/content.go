package models

import "time"

// ContentRecord is one published content row, mirroring what the
// spreadsheet backend stores per image.
type ContentRecord struct {
	SheetName   string    `json:"sheet_name"`
	ImageURL    string    `json:"image_url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Hashtags    string    `json:"hashtags"`
	CreatedAt   time.Time `json:"created_at"`
}
