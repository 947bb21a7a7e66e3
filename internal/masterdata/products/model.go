package products

import (
	"errors"
	"time"
)

// StorageMode mirrors the inventory tracking mode. It is part of the product
// identity once the ledger references the product.
type StorageMode string

const (
	StorageLotted StorageMode = "LOTTED"
	StorageBulk   StorageMode = "BULK"
)

// Product represents a product entity.
type Product struct {
	ID             int64       `json:"id"`
	Code           string      `json:"code"`
	Name           string      `json:"name"`
	Description    string      `json:"description,omitempty"`
	Unit           string      `json:"unit"`
	StorageMode    StorageMode `json:"storage_mode"`
	MinStock       *float64    `json:"min_stock,omitempty"`
	RequiresExpiry bool        `json:"requires_expiry"`
	IsActive       bool        `json:"is_active"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// ErrStorageModeLocked indicates a storage-mode change on a product that
// already has recorded movements.
var ErrStorageModeLocked = errors.New("products: storage mode cannot change once movements exist")
