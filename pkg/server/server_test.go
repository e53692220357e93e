package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/socraticboard/pkg/canvas"
	apperr "github.com/matzehuels/socraticboard/pkg/errors"
	"github.com/matzehuels/socraticboard/pkg/tutor"
	"github.com/matzehuels/socraticboard/pkg/workspace"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := New(tutor.NewOffline(), Config{}, WithLogger(log.New(io.Discard)))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func decodeInto(t *testing.T, data []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
}

func create(t *testing.T, ts *httptest.Server, problem string) string {
	t.Helper()
	resp, data := do(t, http.MethodPost, ts.URL+"/api/v1/workspaces", problemRequest{Problem: problem})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d: %s", resp.StatusCode, data)
	}
	var out workspaceResponse
	decodeInto(t, data, &out)
	if out.ID == "" {
		t.Fatal("create returned no id")
	}
	return out.ID
}

func TestHealthAndVersion(t *testing.T) {
	ts := newTestServer(t)

	resp, data := do(t, http.MethodGet, ts.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), "offline") {
		t.Errorf("healthz = %d %s", resp.StatusCode, data)
	}
	resp, data = do(t, http.MethodGet, ts.URL+"/version", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), `"version"`) {
		t.Errorf("version = %d %s", resp.StatusCode, data)
	}
}

func TestWorkspaceLifecycle(t *testing.T) {
	ts := newTestServer(t)
	id := create(t, ts, "Solve 2x + 3 = 7")
	base := ts.URL + "/api/v1/workspaces/" + id

	resp, data := do(t, http.MethodPut, base+"/viewport", map[string]float64{"width": 1000, "height": 800})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("viewport = %d %s", resp.StatusCode, data)
	}

	body := map[string]string{"call_id": "call-1", "kind": "question", "text": "What is x?"}
	resp, data = do(t, http.MethodPost, base+"/annotations", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("propose = %d %s", resp.StatusCode, data)
	}
	var prop proposeResponse
	decodeInto(t, data, &prop)
	if prop.Annotation.Position == nil || prop.Annotation.Position.X != 700 || prop.Annotation.Position.Y != 20 {
		t.Errorf("position = %v, want (700,20)", prop.Annotation.Position)
	}

	resp, data = do(t, http.MethodPost, base+"/annotations", body)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("replayed propose = %d %s", resp.StatusCode, data)
	}
	var replay proposeResponse
	decodeInto(t, data, &replay)
	if replay.Created || replay.Annotation.ID != prop.Annotation.ID {
		t.Errorf("replay = %+v, want same annotation", replay)
	}

	resp, data = do(t, http.MethodPost, base+"/annotations/"+prop.Annotation.ID+"/approve", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve = %d %s", resp.StatusCode, data)
	}
	var out struct {
		Resolved bool `json:"resolved"`
		Shape    *struct {
			Text  string `json:"text"`
			Color string `json:"color"`
		} `json:"shape"`
	}
	decodeInto(t, data, &out)
	if !out.Resolved || out.Shape == nil || out.Shape.Text != "What is x?" || out.Shape.Color != "blue" {
		t.Errorf("approve = %s", data)
	}

	resp, data = do(t, http.MethodPost, base+"/annotations/"+prop.Annotation.ID+"/approve", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), `"resolved":false`) {
		t.Errorf("second approve = %d %s", resp.StatusCode, data)
	}

	resp, data = do(t, http.MethodPost, base+"/annotations/missing/dismiss", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), `"removed":false`) {
		t.Errorf("dismiss = %d %s", resp.StatusCode, data)
	}

	resp, data = do(t, http.MethodGet, base+"/canvas.svg", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), "<svg") {
		t.Errorf("canvas.svg = %d %s", resp.StatusCode, data)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type = %q", ct)
	}

	resp, data = do(t, http.MethodGet, base, nil)
	var got workspaceResponse
	decodeInto(t, data, &got)
	if resp.StatusCode != http.StatusOK || len(got.State.Shapes) != 1 || len(got.State.Pending) != 0 {
		t.Errorf("get = %d %s", resp.StatusCode, data)
	}

	resp, _ = do(t, http.MethodDelete, base, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete = %d", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodGet, base, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete = %d", resp.StatusCode)
	}
}

func TestCanvasAndReset(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/v1/workspaces/" + create(t, ts, "Area of a circle")

	resp, data := do(t, http.MethodGet, base+"/canvas.svg", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("empty canvas.svg = %d %s", resp.StatusCode, data)
	}

	stroke := strokeRequest{Points: []canvas.Point{{X: 10, Y: 10}, {X: 40, Y: 30}}}
	resp, data = do(t, http.MethodPost, base+"/strokes", stroke)
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("stroke = %d %s", resp.StatusCode, data)
	}

	resp, data = do(t, http.MethodPut, base+"/camera", map[string]float64{"x": 5, "y": 5, "z": 2})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("camera = %d %s", resp.StatusCode, data)
	}

	resp, data = do(t, http.MethodPost, base+"/reset", problemRequest{Problem: "Perimeter of a square"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset = %d %s", resp.StatusCode, data)
	}
	var out workspaceResponse
	decodeInto(t, data, &out)
	if out.State.Problem.Text != "Perimeter of a square" || len(out.State.Shapes) != 0 || out.State.Camera.Zoom != 1 {
		t.Errorf("reset state = %+v", out.State)
	}
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/v1/workspaces/" + create(t, ts, "x")

	tests := []struct {
		name       string
		method     string
		url        string
		body       any
		wantStatus int
		wantCode   apperr.Code
	}{
		{"unknown workspace", http.MethodGet, ts.URL + "/api/v1/workspaces/nope", nil, 404, apperr.ErrCodeSessionNotFound},
		{"invalid id", http.MethodGet, ts.URL + "/api/v1/workspaces/bad.id", nil, 400, apperr.ErrCodeInvalidInput},
		{"unknown route", http.MethodGet, ts.URL + "/api/v2", nil, 404, apperr.ErrCodeNotFound},
		{"unknown field", http.MethodPost, ts.URL + "/api/v1/workspaces", map[string]string{"title": "x"}, 400, apperr.ErrCodeInvalidInput},
		{"bad kind", http.MethodPost, base + "/annotations", map[string]string{"kind": "answer", "text": "42"}, 400, apperr.ErrCodeInvalidKind},
		{"empty text", http.MethodPost, base + "/annotations", map[string]string{"kind": "hint", "text": " "}, 400, apperr.ErrCodeInvalidText},
		{"bad viewport", http.MethodPut, base + "/viewport", map[string]float64{"width": 0, "height": 10}, 400, apperr.ErrCodeInvalidViewport},
		{"bad camera", http.MethodPut, base + "/camera", map[string]float64{"z": 0}, 400, apperr.ErrCodeInvalidInput},
		{"empty stroke", http.MethodPost, base + "/strokes", map[string]any{"points": []any{}}, 400, apperr.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := do(t, tt.method, tt.url, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.wantStatus, data)
			}
			var body errorBody
			decodeInto(t, data, &body)
			if body.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Error.Code, tt.wantCode)
			}
			if body.Error.Message == "" {
				t.Error("empty error message")
			}
		})
	}
}

type sseEvent struct {
	name string
	data string
}

func readSSE(t *testing.T, r io.Reader) []sseEvent {
	t.Helper()
	var events []sseEvent
	var cur sseEvent
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		case line == "" && cur.name != "":
			events = append(events, cur)
			cur = sseEvent{}
		}
	}
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}
	return events
}

func chat(t *testing.T, url, message string) []sseEvent {
	t.Helper()
	data, _ := json.Marshal(chatRequest{Message: message})
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	return readSSE(t, resp.Body)
}

func TestChatStream(t *testing.T) {
	ts := newTestServer(t)
	base := ts.URL + "/api/v1/workspaces/" + create(t, ts, "Solve 2x + 3 = 7")
	do(t, http.MethodPut, base+"/viewport", map[string]float64{"width": 1000, "height": 800})

	events := chat(t, base+"/chat", "")
	if len(events) < 2 {
		t.Fatalf("greeting events = %v", events)
	}
	last := events[len(events)-1]
	if last.name != "done" {
		t.Fatalf("last event = %q, want done", last.name)
	}
	var res workspace.ChatResult
	decodeInto(t, []byte(last.data), &res)
	if !res.Greeting || !strings.HasPrefix(res.Reply, "Hi!") || len(res.Proposed) != 0 {
		t.Errorf("greeting result = %+v", res)
	}

	events = chat(t, base+"/chat", "I'm stuck")
	var proposals []workspace.PendingAnnotation
	for _, ev := range events {
		if ev.name == "proposal" {
			var ce workspace.ChatEvent
			decodeInto(t, []byte(ev.data), &ce)
			if ce.Annotation == nil || ce.Annotation.Position == nil {
				t.Fatalf("proposal without placed annotation: %s", ev.data)
			}
			proposals = append(proposals, *ce.Annotation)
		}
	}
	if len(proposals) != 2 {
		t.Fatalf("proposals = %d, want question and hint", len(proposals))
	}
	if proposals[1].Kind != "hint" {
		t.Errorf("second proposal kind = %q", proposals[1].Kind)
	}

	resp, data := do(t, http.MethodGet, base, nil)
	var got workspaceResponse
	decodeInto(t, data, &got)
	if resp.StatusCode != http.StatusOK || len(got.State.History) != 3 || len(got.State.Pending) != 2 {
		t.Errorf("state after chat = %s", data)
	}
}

func TestChatUnknownWorkspace(t *testing.T) {
	ts := newTestServer(t)
	resp, data := do(t, http.MethodPost, ts.URL+"/api/v1/workspaces/nope/chat", chatRequest{Message: "hi"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d %s", resp.StatusCode, data)
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := New(tutor.NewOffline(), Config{CleanupInterval: 10 * time.Millisecond}, WithLogger(log.New(io.Discard)))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
