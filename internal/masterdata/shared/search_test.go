package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFoldSearch(t *testing.T) {
	require.Equal(t, "azucar", FoldSearch("Azúcar"))
	require.Equal(t, "cafe molido", FoldSearch("  Café Molido "))
	require.Equal(t, "nino", FoldSearch("NIÑO"))
	require.Equal(t, "harina", FoldSearch("harina"))
	require.Equal(t, "", FoldSearch(""))
}
