package ident

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_ValidAndOrdered(t *testing.T) {
	first := New()
	second := New()
	require.True(t, Valid(first))
	require.True(t, Valid(second))
	require.NotEqual(t, first, second)
	require.Less(t, first, second)
}

func TestValid_Rejects(t *testing.T) {
	for _, id := range []string{
		"",
		"0",
		"5f1d7a9e8b3c2a1d0e4f6a7b",
		"not-an-identifier-xx",
		"ZZZZZZZZZZZZZZZZZZZZ",
		New() + "a",
	} {
		require.False(t, Valid(id), id)
	}
}
