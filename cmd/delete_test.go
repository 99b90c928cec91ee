package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseIDRange(t *testing.T) {
	cases := []struct {
		in   string
		want []uint64
	}{
		{"7", []uint64{7}},
		{"1,2,3", []uint64{1, 2, 3}},
		{"1-3", []uint64{1, 2, 3}},
		{"1..3", []uint64{1, 2, 3}},
		{"5-5", []uint64{5}},
		{"1, 3-4", []uint64{1, 3, 4}},
	}
	for _, tc := range cases {
		got, err := parseIDRange(tc.in)
		require.NoError(t, err, "parse %q", tc.in)
		require.Equal(t, tc.want, got, "parse %q", tc.in)
	}

	for _, in := range []string{"", "x", "3-1", "1-", "1..", "1-2-3"} {
		if _, err := parseIDRange(in); err == nil {
			t.Errorf("parse %q: expected error", in)
		}
	}
}
