package resource

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_progressReader(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		total int64
		want  []int
	}{
		{name: "one byte reads", data: []byte("abcd"), total: 4, want: []int{25, 50, 75, 100}},
		{name: "floored", data: []byte("abc"), total: 3, want: []int{33, 66, 100}},
		{name: "duplicates dropped", data: bytes.Repeat([]byte("x"), 300), total: 300, want: percents()},
		{name: "longer than announced", data: []byte("abcdef"), total: 4, want: []int{25, 50, 75, 100}},
		{name: "unknown total", data: []byte("abcd"), total: -1},
		{name: "zero total", data: []byte(""), total: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int
			r := newProgressReader(iotest.OneByteReader(bytes.NewReader(tt.data)), tt.total, func(pct int) {
				got = append(got, pct)
			})
			data, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, tt.data, data)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("no callback", func(t *testing.T) {
		src := bytes.NewReader([]byte("abc"))
		assert.Equal(t, io.Reader(src), newProgressReader(src, 3, nil))
	})
}

func percents() []int {
	out := make([]int, 0, 101)
	for pct := 0; pct <= 100; pct++ {
		out = append(out, pct)
	}
	return out
}
