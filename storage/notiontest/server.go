// Package notiontest runs an in-memory stand-in for the Notion pages and
// database query endpoints.
package notiontest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

type (
	Page struct {
		ID         string                 `json:"id"`
		Parent     map[string]string      `json:"parent,omitempty"`
		Properties map[string]interface{} `json:"properties"`
	}

	Request struct {
		Method string
		Path   string
		Header http.Header
		Body   map[string]interface{}
	}

	Server struct {
		*httptest.Server

		mu       sync.Mutex
		pages    []*Page
		requests []Request
		nextID   int

		// TitleProperty is the property queried by the database filter.
		TitleProperty string
		fail          map[string]int
	}
)

func NewServer(titleProperty string) *Server {
	s := &Server{TitleProperty: titleProperty, fail: map[string]int{}}
	s.Server = httptest.NewServer(s)

	return s
}

func (s *Server) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var body map[string]interface{}
	_ = json.NewDecoder(request.Body).Decode(&body)

	s.requests = append(s.requests, Request{
		Method: request.Method,
		Path:   request.URL.Path,
		Header: request.Header.Clone(),
		Body:   body,
	})

	for key, status := range s.fail {
		parts := strings.SplitN(key, " ", 2)
		if len(parts) == 2 && parts[0] == request.Method && strings.HasPrefix(request.URL.Path, parts[1]) {
			writer.WriteHeader(status)
			_, _ = writer.Write([]byte(`{"object":"error","message":"forced failure"}`))
			return
		}
	}

	switch {
	case request.Method == http.MethodPost && strings.HasSuffix(request.URL.Path, "/query"):
		s.query(writer, body)
	case request.Method == http.MethodPost && request.URL.Path == "/pages":
		s.create(writer, body)
	case request.Method == http.MethodPatch && strings.HasPrefix(request.URL.Path, "/pages/"):
		s.update(writer, strings.TrimPrefix(request.URL.Path, "/pages/"), body)
	default:
		writer.WriteHeader(http.StatusNotFound)
	}
}

func (s *Server) query(writer http.ResponseWriter, body map[string]interface{}) {
	filter, _ := body["filter"].(map[string]interface{})
	title, _ := filter["title"].(map[string]interface{})
	equals, _ := title["equals"].(string)

	results := make([]*Page, 0)

	for _, page := range s.pages {
		if titleOf(page.Properties[s.TitleProperty]) == equals {
			results = append(results, page)
		}
	}

	writeJSON(writer, http.StatusOK, map[string]interface{}{"object": "list", "results": results})
}

func (s *Server) create(writer http.ResponseWriter, body map[string]interface{}) {
	s.nextID++

	page := &Page{
		ID:         fmt.Sprintf("page-%d", s.nextID),
		Properties: properties(body),
	}

	if parent, ok := body["parent"].(map[string]interface{}); ok {
		page.Parent = map[string]string{}
		for k, v := range parent {
			page.Parent[k] = fmt.Sprint(v)
		}
	}

	s.pages = append(s.pages, page)

	writeJSON(writer, http.StatusOK, page)
}

func (s *Server) update(writer http.ResponseWriter, id string, body map[string]interface{}) {
	for _, page := range s.pages {
		if page.ID != id {
			continue
		}

		for k, v := range properties(body) {
			page.Properties[k] = v
		}

		writeJSON(writer, http.StatusOK, page)
		return
	}

	writeJSON(writer, http.StatusNotFound, map[string]string{"object": "error", "code": "object_not_found"})
}

// FailWith makes requests matching method and path prefix answer with status.
func (s *Server) FailWith(method, pathPrefix string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fail[method+" "+pathPrefix] = status
}

// AddPage seeds a page whose title property equals title.
func (s *Server) AddPage(id, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pages = append(s.pages, &Page{
		ID: id,
		Properties: map[string]interface{}{
			s.TitleProperty: map[string]interface{}{
				"title": []interface{}{map[string]interface{}{"plain_text": title}},
			},
		},
	})
}

func (s *Server) Pages() []Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	pages := make([]Page, 0, len(s.pages))
	for _, page := range s.pages {
		pages = append(pages, *page)
	}

	return pages
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Request(nil), s.requests...)
}

// Count returns how many requests matched method and path prefix.
func (s *Server) Count(method, pathPrefix string) int {
	count := 0

	for _, r := range s.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			count++
		}
	}

	return count
}

func properties(body map[string]interface{}) map[string]interface{} {
	props, _ := body["properties"].(map[string]interface{})
	if props == nil {
		props = map[string]interface{}{}
	}

	return props
}

// titleOf reads a title property written either by the API client
// (text.content) or seeded as plain_text.
func titleOf(property interface{}) string {
	prop, _ := property.(map[string]interface{})
	items, _ := prop["title"].([]interface{})

	if len(items) == 0 {
		return ""
	}

	item, _ := items[0].(map[string]interface{})

	if plain, ok := item["plain_text"].(string); ok && plain != "" {
		return plain
	}

	text, _ := item["text"].(map[string]interface{})
	content, _ := text["content"].(string)

	return content
}

func writeJSON(writer http.ResponseWriter, status int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(payload)
}
