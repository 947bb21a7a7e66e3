package suppliers

import (
	"fmt"
	"strings"

	"github.com/Lightwin075/RossiChatllm2/internal/masterdata/shared"
)

func validate(s Supplier) error {
	if s.Type != TypeRecurring && s.Type != TypeContract {
		return fmt.Errorf("%w: supplier type must be RECURRING or CONTRACT", shared.ErrValidation)
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: supplier name is required", shared.ErrValidation)
	}
	if !validRUC(s.RUC) {
		return fmt.Errorf("%w: RUC must be exactly 13 digits", shared.ErrValidation)
	}
	return nil
}

// validRUC accepts the Ecuadorian tax id format: 13 numeric digits.
func validRUC(ruc string) bool {
	if len(ruc) != 13 {
		return false
	}
	for _, r := range ruc {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
