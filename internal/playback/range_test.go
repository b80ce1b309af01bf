package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clipSize = 4 << 20

func TestParseRangeSeeks(t *testing.T) {
	cases := map[string]struct {
		header string
		want   Range
	}{
		"browser probe":          {"bytes=0-", Range{0, clipSize - 1}},
		"seek into the middle":   {"bytes=2097152-", Range{2097152, clipSize - 1}},
		"bounded chunk":          {"bytes=1024-2047", Range{1024, 2047}},
		"moov atom at the tail":  {"bytes=-65536", Range{clipSize - 65536, clipSize - 1}},
		"end past eof is capped": {"bytes=4194000-9999999", Range{4194000, clipSize - 1}},
		"first of several":       {"bytes=10-19, 40-49", Range{10, 19}},
		"whitespace after unit":  {"bytes= 7-8", Range{7, 8}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseRange(tc.header, clipSize)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, *got)
		})
	}
}

func TestParseRangeWholeFile(t *testing.T) {
	got, err := ParseRange("", clipSize)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseRangeSuffixOnSmallFile(t *testing.T) {
	got, err := ParseRange("bytes=-500", 120)
	require.NoError(t, err)
	assert.Equal(t, Range{0, 119}, *got)
}

func TestParseRangeRejects(t *testing.T) {
	invalid := []string{"frames=0-10", "0-10", "bytes=x-10", "bytes=0-y", "bytes=-0", "bytes=3-4-5", "bytes=-"}
	for _, h := range invalid {
		_, err := ParseRange(h, clipSize)
		assert.ErrorIs(t, err, ErrInvalidRange, h)
	}

	unsatisfiable := []string{"bytes=4194304-", "bytes=5000000-5000100", "bytes=900-100"}
	for _, h := range unsatisfiable {
		_, err := ParseRange(h, clipSize)
		assert.ErrorIs(t, err, ErrUnsatisfiable, h)
	}

	_, err := ParseRange("bytes=0-", 0)
	assert.ErrorIs(t, err, ErrUnsatisfiable, "empty file")
}

func TestRangeHeaders(t *testing.T) {
	r := Range{Start: 1024, End: 2047}
	assert.EqualValues(t, 1024, r.ContentLength())
	assert.Equal(t, "bytes 1024-2047/4194304", r.ContentRange(clipSize))

	one := Range{Start: 0, End: 0}
	assert.EqualValues(t, 1, one.ContentLength())
}
