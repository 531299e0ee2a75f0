// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/scholar-monitor/pkg/types"
)

// streamCitations handles POST /api/citations/find/stream. Every progress
// event is written as one "data:" frame; the stream ends after the done or
// error frame.
func (s *Server) streamCitations(w http.ResponseWriter, r *http.Request) {
	engine, seedList, ok := s.findRun(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	for ev := range engine.Stream(r.Context(), seedList) {
		switch {
		case ev.Type == types.EventDone:
			s.storeCitations(r, ev.Citations)
		case ev.Type == types.EventError && len(ev.Citations) > 0:
			s.storeCitations(r, ev.Citations)
		}
		// Write errors are ignored; the channel drains once the engine
		// sees the request context end.
		if err := sendSSEEvent(w, flusher, ev); err != nil {
			s.logger.Debug().Err(err).Msg("SSE write failed")
		}
	}
}

// sendSSEEvent writes one event frame and flushes it.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, ev types.ProgressEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
