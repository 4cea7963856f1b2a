package assembler

import (
	"strings"
	"time"

	"github.com/hrygo/linguasense/store"
)

// Entry is one history item in chronological order.
type Entry struct {
	Role      store.MessageRole
	Content   string
	CreatedTs int64
}

const (
	transcriptHeader = "The history of your conversation with the learner:"
	summaryPrefix    = "Summary of previous conversations: "
	blockDelimiter   = "---"
)

// FormatTranscript renders history entries as a role-grouped dialogue.
//
// Consecutive entries by the same role merge into one block prefixed with a
// role label and the ISO-8601 timestamp of the block's first entry; blocks
// from alternating roles are separated by a delimiter line. The grouping
// lets the model perceive turn-taking without per-line boilerplate.
//
// When more than collapseAfter entries are available, everything older than
// the most recent collapseAfter is collapsed into a single summary line.
// True summarization is a pluggable policy; the structural contract here is
// bounded output with summary-then-verbatim ordering.
func FormatTranscript(entries []Entry, collapseAfter int, loc *time.Location) string {
	var sb strings.Builder

	if collapseAfter > 0 && len(entries) > collapseAfter {
		older := entries[:len(entries)-collapseAfter]
		sb.WriteString(summaryPrefix)
		for i, e := range older {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(e.Content)
		}
		sb.WriteString("\n")
		entries = entries[len(entries)-collapseAfter:]
	}

	sb.WriteString(transcriptHeader)
	sb.WriteString("\n")

	for i := 0; i < len(entries); {
		// One block per run of same-role entries.
		j := i
		for j < len(entries) && entries[j].Role == entries[i].Role {
			j++
		}

		if i > 0 {
			sb.WriteString(blockDelimiter)
			sb.WriteString("\n")
		}

		first := entries[i]
		sb.WriteString("[")
		sb.WriteString(roleLabel(first.Role))
		sb.WriteString(" @ ")
		sb.WriteString(time.Unix(first.CreatedTs, 0).In(loc).Format(time.RFC3339))
		sb.WriteString("]\n")
		for _, e := range entries[i:j] {
			sb.WriteString(e.Content)
			sb.WriteString("\n")
		}

		i = j
	}

	return sb.String()
}

func roleLabel(role store.MessageRole) string {
	switch role {
	case store.MessageRoleAssistant:
		return "Assistant"
	default:
		return "Learner"
	}
}
