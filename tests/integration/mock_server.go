package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
)

// MockStoryServer serves story pages and the media they reference
type MockStoryServer struct {
	server         *httptest.Server
	mu             sync.RWMutex
	stories        map[string][]string // username -> media ids, in feed order
	pageStatus     map[string]int      // username -> forced status
	brokenPages    map[string]bool     // username -> page without payload
	mediaStatus    map[string]int      // media id -> forced status
	pageRequests   int32
	mediaRequests  int32
	mediaDownloads map[string]int
}

// NewMockStoryServer starts a mock story host
func NewMockStoryServer() *MockStoryServer {
	m := &MockStoryServer{
		stories:        make(map[string][]string),
		pageStatus:     make(map[string]int),
		brokenPages:    make(map[string]bool),
		mediaStatus:    make(map[string]int),
		mediaDownloads: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/media/", m.handleMedia)
	mux.HandleFunc("/", m.handleStory)

	m.server = httptest.NewServer(mux)
	return m
}

// URL returns the server's base URL
func (m *MockStoryServer) URL() string {
	return m.server.URL
}

// Close shuts the server down
func (m *MockStoryServer) Close() {
	m.server.Close()
}

// MediaURL returns the absolute URL of a media id
func (m *MockStoryServer) MediaURL(id string) string {
	return m.server.URL + "/media/" + id
}

// SetStory replaces a user's published media ids
func (m *MockStoryServer) SetStory(username string, ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stories[username] = ids
}

// SetPageStatus forces the story page of username to answer with status
func (m *MockStoryServer) SetPageStatus(username string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageStatus[username] = status
}

// BreakPage makes the story page of username omit its data script
func (m *MockStoryServer) BreakPage(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.brokenPages[username] = true
}

// SetMediaStatus forces a media id to answer with status
func (m *MockStoryServer) SetMediaStatus(id string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mediaStatus[id] = status
}

// Downloads returns how many times a media id was served successfully
func (m *MockStoryServer) Downloads(id string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mediaDownloads[id]
}

// PageRequests returns the number of story page requests
func (m *MockStoryServer) PageRequests() int {
	return int(atomic.LoadInt32(&m.pageRequests))
}

func (m *MockStoryServer) handleStory(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.pageRequests, 1)

	username, ok := strings.CutPrefix(r.URL.Path, "/@")
	if !ok {
		http.NotFound(w, r)
		return
	}

	m.mu.RLock()
	status, forced := m.pageStatus[username]
	broken := m.brokenPages[username]
	ids, exists := m.stories[username]
	m.mu.RUnlock()

	if forced {
		w.WriteHeader(status)
		return
	}
	if !exists {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if broken {
		fmt.Fprint(w, "<html><body><h1>Something changed</h1></body></html>")
		return
	}

	type snap struct {
		SnapIndex int               `json:"snapIndex"`
		SnapURLs  map[string]string `json:"snapUrls"`
	}
	snaps := make([]snap, 0, len(ids))
	for i, id := range ids {
		snaps = append(snaps, snap{SnapIndex: i, SnapURLs: map[string]string{"mediaUrl": m.MediaURL(id)}})
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"props": map[string]interface{}{
			"pageProps": map[string]interface{}{
				"story": map[string]interface{}{"snapList": snaps},
			},
		},
		"page": "/[profile]",
	})

	fmt.Fprintf(w, `<!DOCTYPE html><html><head><title>%s</title></head><body><div id="__next"></div>`+
		`<script id="__NEXT_DATA__" type="application/json">%s</script></body></html>`, username, payload)
}

func (m *MockStoryServer) handleMedia(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.mediaRequests, 1)
	id := strings.TrimPrefix(r.URL.Path, "/media/")

	m.mu.RLock()
	status, forced := m.mediaStatus[id]
	m.mu.RUnlock()
	if forced {
		w.WriteHeader(status)
		return
	}

	if strings.HasPrefix(id, "vid") {
		w.Header().Set("Content-Type", "video/mp4")
	} else {
		w.Header().Set("Content-Type", "image/jpeg")
	}
	fmt.Fprintf(w, "media-%s-%s", id, strings.Repeat("x", 4096))

	m.mu.Lock()
	m.mediaDownloads[id]++
	m.mu.Unlock()
}
