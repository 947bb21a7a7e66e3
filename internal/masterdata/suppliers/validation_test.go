package suppliers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lightwin075/RossiChatllm2/internal/masterdata/shared"
)

func TestValidateSupplier(t *testing.T) {
	valid := Supplier{Type: TypeRecurring, Name: "Molinos del Sur", RUC: "1790012345001"}
	require.NoError(t, validate(valid))

	cases := []struct {
		name   string
		mutate func(*Supplier)
	}{
		{"unknown type", func(s *Supplier) { s.Type = "ONE_OFF" }},
		{"blank name", func(s *Supplier) { s.Name = "   " }},
		{"short ruc", func(s *Supplier) { s.RUC = "179001234500" }},
		{"long ruc", func(s *Supplier) { s.RUC = "17900123450011" }},
		{"non numeric ruc", func(s *Supplier) { s.RUC = "17900123450O1" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := valid
			tc.mutate(&s)
			require.ErrorIs(t, validate(s), shared.ErrValidation)
		})
	}
}
