package catalog

import "time"

// Entry is one named dataset source offered by the dataset selector.
type Entry struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Source      string    `json:"source"`
	Description string    `json:"description"`
	AddedAt     time.Time `json:"added_at"`
}
