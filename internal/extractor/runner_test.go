package extractor

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/termex/internal/store"
)

func TestRunner_Run(t *testing.T) {
	st := store.NewMemStore()
	x, sents := newTestExtractor(t, st)

	var mu sync.Mutex
	counts := make(map[ProgressStatus]int)
	var maxDone, total int
	r := NewRunner(x, 2, func(ev ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		counts[ev.Status]++
		if ev.Status == ProgressComplete {
			maxDone = max(maxDone, ev.Done)
			total = ev.Total
		}
	})

	results, err := r.Run(context.Background(), sents)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, shortSentenceTerms, results[0].Terms)
	assert.Contains(t, results[1].Terms, "grand-mère maternelle")
	assert.Contains(t, results[1].Terms, "deuxième femme")

	assert.Equal(t, 2, counts[ProgressPending])
	assert.Equal(t, 2, counts[ProgressWorking])
	assert.Equal(t, 2, counts[ProgressComplete])
	assert.Zero(t, counts[ProgressFailed])
	assert.Equal(t, 2, maxDone)
	assert.Equal(t, 2, total)

	// "chat" occurs once in each sentence.
	chat, err := st.GetTerm(context.Background(), "chat")
	require.NoError(t, err)
	assert.Equal(t, 2, chat.Frequency)
}

func TestRunner_FirstErrorWins(t *testing.T) {
	x, sents := newTestExtractor(t, failingStore{store.NewMemStore()})

	var mu sync.Mutex
	var failed []string
	r := NewRunner(x, 1, func(ev ProgressEvent) {
		if ev.Status == ProgressFailed {
			mu.Lock()
			failed = append(failed, ev.Section)
			mu.Unlock()
		}
	})

	_, err := r.Run(context.Background(), sents)
	require.ErrorIs(t, err, errBroken)
	assert.Contains(t, err.Error(), "chat.conll#1")
	assert.Equal(t, []string{"chat.conll#1"}, failed)
}

func TestNewRunner_ClampsWorkers(t *testing.T) {
	r := NewRunner(nil, 0, nil)
	assert.Equal(t, 1, r.workers)
}

func TestFormatProgress(t *testing.T) {
	assert.Equal(t, "  ✓ [1/4] a#1: 3 terms",
		FormatProgress(ProgressEvent{Section: "a#1", Status: ProgressComplete, Terms: 3, Done: 1, Total: 4}))
	assert.Equal(t, "  ✗ [2/4] a#1 failed: boom",
		FormatProgress(ProgressEvent{Section: "a#1", Status: ProgressFailed, Message: "boom", Done: 2, Total: 4}))
	assert.Equal(t, "  ○ a#1 (pending)", FormatProgress(ProgressEvent{Section: "a#1", Status: ProgressPending}))
	assert.Equal(t, "  ? a#1 (paused)", FormatProgress(ProgressEvent{Section: "a#1", Status: "paused"}))
}
