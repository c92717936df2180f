package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// PatchCall records one PATCH received by FakeAPI.
type PatchCall struct {
	URL  string
	Body map[string][]string
}

// FakeAPI is an in-memory stand-in for a Tabbycat instance hosting one
// tournament. Entities are JSON objects keyed by their url; PATCH merges
// the given keys into the stored object.
type FakeAPI struct {
	Server *httptest.Server
	Slug   string
	Token  string

	mu       sync.Mutex
	nextID   int
	order    map[string][]string // listing path -> entity urls
	entities map[string]map[string]any
	patches  []PatchCall
	failures map[string][]int // path -> queued status codes
}

// NewFakeAPI starts a fake API that expects "Authorization: Token <token>".
func NewFakeAPI(t *testing.T, slug, token string) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		Slug:     slug,
		Token:    token,
		order:    make(map[string][]string),
		entities: make(map[string]map[string]any),
		failures: make(map[string][]int),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// BaseURL returns the API root clients should be configured with.
func (f *FakeAPI) BaseURL() string {
	return f.Server.URL + "/api/v1"
}

// AddInstitution registers an institution and returns its url.
func (f *FakeAPI) AddInstitution(name string) string {
	return f.add("/api/v1/institutions", map[string]any{"name": name, "code": name})
}

// AddAdjudicator registers an adjudicator with no conflicts and returns its url.
func (f *FakeAPI) AddAdjudicator(name string) string {
	return f.add(f.tournamentPath("adjudicators"), map[string]any{
		"name":                  name,
		"team_conflicts":        []string{},
		"adjudicator_conflicts": []string{},
		"institution_conflicts": []string{},
	})
}

// AddTeam registers a team under its short name and returns its url.
func (f *FakeAPI) AddTeam(shortName string) string {
	return f.add(f.tournamentPath("teams"), map[string]any{
		"short_name":            shortName,
		"long_name":             shortName,
		"institution_conflicts": []string{},
	})
}

// SetField overwrites one field of a stored entity.
func (f *FakeAPI) SetField(url, field string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entities[url][field] = value
}

// Field returns a stored conflict list.
func (f *FakeAPI) Field(url, field string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, _ := json.Marshal(f.entities[url][field])
	var out []string
	_ = json.Unmarshal(raw, &out)
	return out
}

// FailNext makes the next len(statuses) requests to the entity url or
// listing path fail with the given status codes, in order.
func (f *FakeAPI) FailNext(urlOrPath string, statuses ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := strings.TrimPrefix(urlOrPath, f.Server.URL)
	f.failures[path] = append(f.failures[path], statuses...)
}

// Patches returns the PATCH calls received so far.
func (f *FakeAPI) Patches() []PatchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]PatchCall, len(f.patches))
	copy(out, f.patches)
	return out
}

// ResetPatches forgets recorded PATCH calls.
func (f *FakeAPI) ResetPatches() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = nil
}

func (f *FakeAPI) tournamentPath(kind string) string {
	return "/api/v1/tournaments/" + f.Slug + "/" + kind
}

func (f *FakeAPI) add(listPath string, obj map[string]any) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	url := fmt.Sprintf("%s%s/%d", f.Server.URL, listPath, f.nextID)
	obj["id"] = f.nextID
	obj["url"] = url
	f.entities[url] = obj
	f.order[listPath] = append(f.order[listPath], url)
	return url
}

func (f *FakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Token "+f.Token {
		http.Error(w, `{"detail":"Invalid token."}`, http.StatusUnauthorized)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if queued := f.failures[r.URL.Path]; len(queued) > 0 {
		f.failures[r.URL.Path] = queued[1:]
		http.Error(w, `{"detail":"injected failure"}`, queued[0])
		return
	}

	switch r.Method {
	case http.MethodGet:
		urls, ok := f.order[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		list := make([]map[string]any, 0, len(urls))
		for _, u := range urls {
			list = append(list, f.entities[u])
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)

	case http.MethodPatch:
		url := f.Server.URL + r.URL.Path
		obj, ok := f.entities[url]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Content-Type") != "application/json" {
			http.Error(w, `{"detail":"unsupported media type"}`, http.StatusUnsupportedMediaType)
			return
		}
		data, _ := io.ReadAll(r.Body)
		var body map[string][]string
		if err := json.Unmarshal(data, &body); err != nil {
			http.Error(w, `{"detail":"bad json"}`, http.StatusBadRequest)
			return
		}
		for k, v := range body {
			obj[k] = v
		}
		f.patches = append(f.patches, PatchCall{URL: url, Body: body})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(obj)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
