package suppliers

import "time"

// SupplierType distinguishes recurring vendors from one-off contracts.
type SupplierType string

const (
	TypeRecurring SupplierType = "RECURRING"
	TypeContract  SupplierType = "CONTRACT"
)

// Supplier represents a supplier entity.
type Supplier struct {
	ID        int64        `json:"id"`
	Type      SupplierType `json:"type"`
	Name      string       `json:"name"`
	RUC       string       `json:"ruc"`
	Email     string       `json:"email,omitempty"`
	Phones    []string     `json:"phones,omitempty"`
	Address   string       `json:"address,omitempty"`
	IsActive  bool         `json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
