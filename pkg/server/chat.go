package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	apperr "github.com/matzehuels/socraticboard/pkg/errors"
	"github.com/matzehuels/socraticboard/pkg/tutor"
	"github.com/matzehuels/socraticboard/pkg/workspace"
)

// sseWriter writes Server-Sent Events and flushes after each one.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s *sseWriter) send(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// handleChat runs one tutor turn and streams it as SSE. Events:
//
//	text        {"type":"text","text":"..."}
//	proposal    {"type":"proposal","annotation":{...}}
//	done        {"reply":"...","proposed":[...],"greeting":false}
//	error       {"code":"...","message":"..."}
//
// Once the stream has started, failures are reported as an error event
// because the status line has already been sent.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, s.logger, apperr.New(apperr.ErrCodeUnsupported, "streaming not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sse := &sseWriter{w: w, flusher: flusher}
	res, err := sess.Workspace.Chat(r.Context(), s.engine, req.Message, func(ev workspace.ChatEvent) error {
		if ev.Type == tutor.EventDone {
			return nil
		}
		return sse.send(string(ev.Type), ev)
	})
	if err != nil {
		code := apperr.GetCode(err)
		if code == "" {
			code = apperr.ErrCodeInternal
		}
		s.logger.Warn("chat turn failed", "id", sess.ID, "err", err)
		_ = sse.send(string(tutor.EventError), errorDetail{Code: code, Message: apperr.UserMessage(err)})
		return
	}
	if res.Proposed == nil {
		res.Proposed = []string{}
	}
	_ = sse.send(string(tutor.EventDone), res)
}
