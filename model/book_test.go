package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidISBN(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"9780134190440", true},
		{"9790134190440", true},
		{"0134190440", true},
		{"043942089X", true},
		{"978-0-13-419044-0", false}, // callers normalize first
		{"12345", false},
		{"", false},
		{"97801341904401", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ValidISBN(tc.in), "isbn %q", tc.in)
	}
}

func TestNormalizeISBN(t *testing.T) {
	require.Equal(t, "9780134190440", NormalizeISBN(" 978-0-13-419044-0 "))
	require.Equal(t, "043942089X", NormalizeISBN("0-439-42089-X"))
}
