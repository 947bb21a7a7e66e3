package products

import (
	"fmt"
	"strings"

	"github.com/Lightwin075/RossiChatllm2/internal/masterdata/shared"
)

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.Code) == "" {
		return fmt.Errorf("%w: product code is required", shared.ErrValidation)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name is required", shared.ErrValidation)
	}
	if strings.TrimSpace(p.Unit) == "" {
		return fmt.Errorf("%w: product unit is required", shared.ErrValidation)
	}
	if p.StorageMode != StorageLotted && p.StorageMode != StorageBulk {
		return fmt.Errorf("%w: storage mode must be LOTTED or BULK", shared.ErrValidation)
	}
	if p.MinStock != nil && *p.MinStock < 0 {
		return fmt.Errorf("%w: min stock cannot be negative", shared.ErrValidation)
	}
	if p.RequiresExpiry && p.StorageMode != StorageLotted {
		return fmt.Errorf("%w: expiry tracking requires lotted storage", shared.ErrValidation)
	}
	return nil
}
