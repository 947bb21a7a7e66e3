package warehouses

import "time"

// Warehouse represents a physical storage location.
type Warehouse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Location    string    `json:"location,omitempty"`
	Responsible string    `json:"responsible,omitempty"`
	Capacity    *float64  `json:"capacity,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
