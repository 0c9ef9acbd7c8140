package extract_test

import (
	"testing"

	"github.com/pseudomuto/chsync/pkg/extract"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{input: "app.orders", expected: "app.orders", ok: true},
		{input: " `app`.`orders` ", expected: "app.orders", ok: true},
		{input: "'app.orders'", expected: "app.orders", ok: true},
		{input: "app.orders AS o", expected: "app.orders", ok: true},
		{input: "(app.orders)", expected: "app.orders", ok: true},
		{input: "orders"},
		{input: "a.b.c"},
		{input: ".orders"},
		{input: "app."},
		{input: "SELECT"},
		{input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := extract.Clean(tt.input)
			require.Equal(t, tt.ok, ok)
			if ok {
				require.Equal(t, tt.expected, got.String())
			}
		})
	}
}

func TestStripComments(t *testing.T) {
	sql := "SELECT 1 -- trailing\n/* block\nspanning */FROM a.b"
	require.Equal(t, "SELECT 1 \nFROM a.b", extract.StripComments(sql))
}
