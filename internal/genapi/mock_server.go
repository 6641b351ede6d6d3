// SPDX-License-Identifier: MIT
package genapi

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Reply describes one canned response. Raw, when set, is written verbatim
// instead of the JSON encoding of Body.
type Reply struct {
	Status      int
	Body        any
	Raw         []byte
	ContentType string
	Delay       time.Duration
}

// CapturedRequest is a request as received by the mock.
type CapturedRequest struct {
	Path          string
	Method        string
	ContentType   string
	Authorization string
	Body          []byte
}

// MockServer provides a configurable generation API for testing.
type MockServer struct {
	*httptest.Server
	mu       sync.Mutex
	replies  map[string]Reply
	queued   map[string][]Reply
	gates    map[string]chan struct{}
	requests []CapturedRequest
}

// NewMockServer starts a mock serving both generation endpoints with realistic defaults.
func NewMockServer() *MockServer {
	m := &MockServer{}
	m.Reset()

	mux := http.NewServeMux()
	mux.HandleFunc(EndpointVoice, m.handle)
	mux.HandleFunc(EndpointContent, m.handle)

	m.Server = httptest.NewServer(mux)
	return m
}

// Close releases held requests and shuts the server down.
func (m *MockServer) Close() {
	m.mu.Lock()
	for endpoint, gate := range m.gates {
		close(gate)
		delete(m.gates, endpoint)
	}
	m.mu.Unlock()
	m.Server.Close()
}

// Reset restores default replies and clears captured requests and gates.
func (m *MockServer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, gate := range m.gates {
		close(gate)
	}
	m.replies = map[string]Reply{
		EndpointVoice:   VoiceReply(SampleWAV(), "audio/wav"),
		EndpointContent: VideoReply(SampleMP4()),
	}
	m.queued = make(map[string][]Reply)
	m.gates = make(map[string]chan struct{})
	m.requests = nil
}

// SetReply sets the reply returned for every request to endpoint.
func (m *MockServer) SetReply(endpoint string, r Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[endpoint] = r
}

// QueueReply adds a one-shot reply; queued replies are served in order before the default.
func (m *MockServer) QueueReply(endpoint string, r Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued[endpoint] = append(m.queued[endpoint], r)
}

// SetDelay sets an artificial delay for the current default reply of endpoint.
func (m *MockServer) SetDelay(endpoint string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.replies[endpoint]
	r.Delay = d
	m.replies[endpoint] = r
}

// Hold makes requests to endpoint block after capture until the returned
// release func is called (or the request context ends).
func (m *MockServer) Hold(endpoint string) (release func()) {
	gate := make(chan struct{})
	m.mu.Lock()
	m.gates[endpoint] = gate
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			if m.gates[endpoint] == gate {
				delete(m.gates, endpoint)
				close(gate)
			}
			m.mu.Unlock()
		})
	}
}

// Requests returns a copy of all captured requests.
func (m *MockServer) Requests() []CapturedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CapturedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestCount returns how many requests reached endpoint.
func (m *MockServer) RequestCount(endpoint string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.requests {
		if r.Path == endpoint {
			n++
		}
	}
	return n
}

func (m *MockServer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	m.mu.Lock()
	m.requests = append(m.requests, CapturedRequest{
		Path:          r.URL.Path,
		Method:        r.Method,
		ContentType:   r.Header.Get("Content-Type"),
		Authorization: r.Header.Get("Authorization"),
		Body:          body,
	})
	reply := m.replies[r.URL.Path]
	if q := m.queued[r.URL.Path]; len(q) > 0 {
		reply = q[0]
		m.queued[r.URL.Path] = q[1:]
	}
	gate := m.gates[r.URL.Path]
	m.mu.Unlock()

	if r.Method != http.MethodPost {
		http.Error(w, `{"detail":"Method Not Allowed"}`, http.StatusMethodNotAllowed)
		return
	}

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}
	if reply.Delay > 0 {
		select {
		case <-time.After(reply.Delay):
		case <-r.Context().Done():
			return
		}
	}

	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	contentType := reply.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)

	if reply.Raw != nil {
		_, _ = w.Write(reply.Raw)
		return
	}
	if reply.Body != nil {
		_ = json.NewEncoder(w).Encode(reply.Body)
	}
}

// VoiceReply answers generate-voice with base64 audio.
func VoiceReply(audio []byte, contentType string) Reply {
	return Reply{Body: map[string]string{
		"audio_data":   base64.StdEncoding.EncodeToString(audio),
		"content_type": contentType,
	}}
}

// VideoReply answers generate-content with a single video.
func VideoReply(video []byte) Reply {
	return Reply{Body: map[string]string{
		"video_data": base64.StdEncoding.EncodeToString(video),
	}}
}

// DraftsReply answers generate-content with a draft list.
func DraftsReply(drafts []Draft) Reply {
	return Reply{Body: map[string]any{"results": drafts}}
}

// ErrorReply returns {"error": msg} with the given status.
func ErrorReply(status int, msg string) Reply {
	return Reply{Status: status, Body: map[string]string{"error": msg}}
}

// SampleDrafts builds n drafts. Odd iterations carry raw base64 JPEG images
// and WAV voice data; iteration 2 carries a data URI image; the rest are text only.
func SampleDrafts(n int) []Draft {
	img := base64.StdEncoding.EncodeToString(SampleJPEG())
	voice := base64.StdEncoding.EncodeToString(SampleWAV())
	drafts := make([]Draft, 0, n)
	for i := 1; i <= n; i++ {
		d := Draft{
			Iteration: i,
			Story:     fmt.Sprintf("Draft %d: the lantern flickered.\nSomething moved below.", i),
		}
		switch {
		case i%2 == 1:
			d.EnhancedStory = d.Story + " (enhanced)"
			d.ImageURL = img
			d.VoiceData = voice
		case i == 2:
			d.ImageURL = "data:image/png;base64," + base64.StdEncoding.EncodeToString(SamplePNG())
		}
		drafts = append(drafts, d)
	}
	return drafts
}

// SampleWAV returns a minimal 16-bit mono PCM WAV file with silent samples.
func SampleWAV() []byte {
	const samples = 8
	dataLen := samples * 2
	buf := make([]byte, 44+dataLen)
	copy(buf[0:], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:], uint32(36+dataLen))
	copy(buf[8:], "WAVEfmt ")
	binary.LittleEndian.PutUint32(buf[16:], 16)
	binary.LittleEndian.PutUint16(buf[20:], 1)
	binary.LittleEndian.PutUint16(buf[22:], 1)
	binary.LittleEndian.PutUint32(buf[24:], 8000)
	binary.LittleEndian.PutUint32(buf[28:], 16000)
	binary.LittleEndian.PutUint16(buf[32:], 2)
	binary.LittleEndian.PutUint16(buf[34:], 16)
	copy(buf[36:], "data")
	binary.LittleEndian.PutUint32(buf[40:], uint32(dataLen))
	return buf
}

// SampleMP4 returns an ftyp box, enough for content sniffing.
func SampleMP4() []byte {
	return []byte{
		0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2',
		0x00, 0x00, 0x00, 0x00, 'm', 'p', '4', '2', 'i', 's', 'o', 'm',
	}
}

// SampleJPEG returns a JFIF header.
func SampleJPEG() []byte {
	return []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0xFF, 0xD9}
}

// SamplePNG returns a PNG signature followed by an IHDR chunk header.
func SamplePNG() []byte {
	return []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 'I', 'H', 'D', 'R'}
}
