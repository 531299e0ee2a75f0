// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"context"

	"github.com/google/uuid"

	"github.com/pdiddy/scholar-monitor/pkg/types"
)

// streamBuffer bounds how far the engine may run ahead of a slow reader.
const streamBuffer = 32

// Stream runs CollectCitations in a goroutine and delivers its progress on
// the returned channel: a started event, every engine event in order, then
// one done event carrying the citations or one error event carrying the
// error detail and any partial citations. The channel is closed after the
// terminal event. Callers must drain the channel or cancel ctx.
func (e *Engine) Stream(ctx context.Context, seeds []types.SeedPaper) <-chan types.ProgressEvent {
	ch := make(chan types.ProgressEvent, streamBuffer)
	runID := uuid.NewString()

	go func() {
		defer close(ch)
		send := func(ev types.ProgressEvent) bool {
			ev.RunID = runID
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send(types.ProgressEvent{Type: types.EventStarted, Total: len(e.selectSeeds(seeds))}) {
			return
		}

		citations, err := e.CollectCitations(ctx, seeds, func(ev types.ProgressEvent) { send(ev) })
		if err != nil {
			e.logger.Warn().Err(err).Str("run_id", runID).Msg("discovery stream ended with error")
			// Deliver the terminal event even when ctx is already done, as
			// long as the buffer has room.
			failed := types.ProgressEvent{
				Type:      types.EventError,
				RunID:     runID,
				Detail:    err.Error(),
				Count:     len(citations),
				Citations: citations,
			}
			select {
			case ch <- failed:
			default:
				send(failed)
			}
			return
		}
		send(types.ProgressEvent{Type: types.EventDone, Count: len(citations), Citations: citations})
	}()

	return ch
}
