package assembler

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/linguasense/store"
)

func TestFormatTranscriptGroupsSameRoleRuns(t *testing.T) {
	entries := []Entry{
		{Role: store.MessageRoleUser, Content: "a", CreatedTs: 100},
		{Role: store.MessageRoleUser, Content: "b", CreatedTs: 105},
		{Role: store.MessageRoleAssistant, Content: "c", CreatedTs: 110},
	}

	out := FormatTranscript(entries, 20, time.UTC)

	// Two entries by the same role merge into one block; the block carries
	// the timestamp of its first entry.
	assert.Equal(t, 1, strings.Count(out, "[Learner @"))
	assert.Equal(t, 1, strings.Count(out, "[Assistant @"))
	assert.Equal(t, 1, strings.Count(out, blockDelimiter+"\n"))
	assert.Contains(t, out, "[Learner @ "+time.Unix(100, 0).UTC().Format(time.RFC3339)+"]\na\nb\n")
	assert.Contains(t, out, "[Assistant @ "+time.Unix(110, 0).UTC().Format(time.RFC3339)+"]\nc\n")

	learnerIdx := strings.Index(out, "[Learner @")
	assistantIdx := strings.Index(out, "[Assistant @")
	assert.Less(t, learnerIdx, assistantIdx)
}

func TestFormatTranscriptEmpty(t *testing.T) {
	out := FormatTranscript(nil, 20, time.UTC)
	assert.Equal(t, transcriptHeader+"\n", out)
}

func TestFormatTranscriptCollapseBoundary(t *testing.T) {
	entries := []Entry{
		{Role: store.MessageRoleUser, Content: "old-1", CreatedTs: 10},
		{Role: store.MessageRoleAssistant, Content: "old-2", CreatedTs: 20},
		{Role: store.MessageRoleUser, Content: "new-1", CreatedTs: 30},
		{Role: store.MessageRoleAssistant, Content: "new-2", CreatedTs: 40},
	}

	out := FormatTranscript(entries, 2, time.UTC)

	lines := strings.Split(out, "\n")
	require.True(t, strings.HasPrefix(lines[0], summaryPrefix))
	assert.Equal(t, summaryPrefix+"old-1 old-2", lines[0])
	assert.Equal(t, transcriptHeader, lines[1])
	assert.NotContains(t, out[len(lines[0]):], "old-1")
	assert.Contains(t, out, "new-1")
	assert.Contains(t, out, "new-2")
}

func TestFormatTranscriptNoCollapseAtExactBoundary(t *testing.T) {
	entries := []Entry{
		{Role: store.MessageRoleUser, Content: "x", CreatedTs: 10},
		{Role: store.MessageRoleAssistant, Content: "y", CreatedTs: 20},
	}

	// len(entries) == collapseAfter keeps everything verbatim.
	out := FormatTranscript(entries, 2, time.UTC)
	assert.NotContains(t, out, summaryPrefix)
	assert.Contains(t, out, "x")
	assert.Contains(t, out, "y")
}

func TestFormatTranscriptTimestampLocation(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Istanbul")
	require.NoError(t, err)

	entries := []Entry{{Role: store.MessageRoleUser, Content: "selam", CreatedTs: 1767225600}}
	out := FormatTranscript(entries, 20, loc)
	assert.Contains(t, out, time.Unix(1767225600, 0).In(loc).Format(time.RFC3339))
}
