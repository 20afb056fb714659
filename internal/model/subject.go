package model

import "time"

// Subject represents an academic course or subject. Every subject belongs to a class.
type Subject struct {
	ID          int       `json:"id"`
	ClassID     int       `json:"class_id"`
	ClassName   string    `json:"class_name,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
