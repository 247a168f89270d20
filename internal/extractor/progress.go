package extractor

import "fmt"

// ProgressStatus is the state of one sentence in a run.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)

// ProgressEvent reports a sentence changing state. Done counts the sentences
// of the run that have finished, this one included.
type ProgressEvent struct {
	Sentence int
	Section  string
	Status   ProgressStatus
	Terms    int
	Message  string
	Done     int
	Total    int
}

// FormatProgress renders ev as one status line.
func FormatProgress(ev ProgressEvent) string {
	switch ev.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ %s (pending)", ev.Section)
	case ProgressWorking:
		return fmt.Sprintf("  ● %s...", ev.Section)
	case ProgressComplete:
		return fmt.Sprintf("  ✓ [%d/%d] %s: %d terms", ev.Done, ev.Total, ev.Section, ev.Terms)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ [%d/%d] %s failed: %s", ev.Done, ev.Total, ev.Section, ev.Message)
	}
	return fmt.Sprintf("  ? %s (%s)", ev.Section, ev.Status)
}
