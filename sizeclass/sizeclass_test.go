package sizeclass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOf(t *testing.T) {
	cases := []struct {
		n    uint64
		want int
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{128, 7},
		{129, 8},
		{1024, 10},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Of(c.n), "Of(%d)", c.n)
	}
}

func TestBytesRoundTrip(t *testing.T) {
	for k := 0; k <= 20; k++ {
		require.Equal(t, k, Of(Bytes(k)), "k=%d", k)
	}
}

func TestName(t *testing.T) {
	cases := []struct {
		k    int
		want string
	}{
		{0, "1 byte"},
		{1, "2 bytes"},
		{10, "1 kilobytes"},
		{11, "2 kilobytes"},
		{20, "1 megabytes"},
		{30, "1 gigabytes"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Name(c.k), "Name(%d)", c.k)
	}
}
