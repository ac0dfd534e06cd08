package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func feedAll(f *Framer, input string) []string {
	var lines []string
	f.FeedBytes([]byte(input), func(line string) {
		lines = append(lines, line)
	})
	return lines
}

func TestFramer(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expect    []string
		pending   int
		overflows uint64
	}{
		{
			name:   "single line",
			input:  "CPU:42\n",
			expect: []string{"CPU:42"},
		},
		{
			name:   "crlf terminator",
			input:  "CPU:42\r\nGPU:7\r\n",
			expect: []string{"CPU:42", "GPU:7"},
		},
		{
			name:   "blank lines skipped",
			input:  "\n\r\nCPU:42\n\n",
			expect: []string{"CPU:42"},
		},
		{
			name:    "partial line buffered",
			input:   "CPU:42\nGPU",
			expect:  []string{"CPU:42"},
			pending: 3,
		},
		{
			name:      "oversized line discarded whole",
			input:     strings.Repeat("x", MaxLineLen+10) + "\nCPU:1\n",
			expect:    []string{"CPU:1"},
			overflows: 1,
		},
		{
			name:   "line at capacity kept",
			input:  strings.Repeat("y", MaxLineLen) + "\n",
			expect: []string{strings.Repeat("y", MaxLineLen)},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var f Framer
			lines := feedAll(&f, tc.input)
			require.Equal(t, tc.expect, lines)
			require.Equal(t, tc.pending, f.Pending())
			require.Equal(t, tc.overflows, f.Overflows())
		})
	}
}

func TestFramerSplitFeeds(t *testing.T) {
	var f Framer
	require.Empty(t, feedAll(&f, "CPU"))
	require.Empty(t, feedAll(&f, ":42"))
	require.Equal(t, []string{"CPU:42"}, feedAll(&f, "\n"))
}

func TestFramerReset(t *testing.T) {
	var f Framer
	feedAll(&f, "CPU:4")
	require.Equal(t, 5, f.Pending())
	f.Reset()
	require.Zero(t, f.Pending())
	require.Equal(t, []string{"GPU:7"}, feedAll(&f, "GPU:7\n"))
}
