// Package dspacetest runs a small in-process DSpace REST API for tests.
package dspacetest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Fixture ids.
const (
	TopCommunityID = "7669c72a-3f2a-451f-a3b9-9210e7a4c02f"
	SubCommunityID = "9076bd16-e69a-48d6-9e41-0238cb40d863"
	CollectionID   = "282164f5-d325-4740-8dd1-fa4d6d3e7200"
	ItemID         = "1507ba5e-98cc-4e1b-a2a6-b13a6ffb2ea7"
	LogoID         = "cf9b0c8e-a1eb-4b65-afd0-567366448713"
)

// Server serves a fixed repository: one top community with a sub-community, a
// collection holding one item, and a logo bitstream.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	calls     map[string]int
	overrides map[string]int
	bodies    map[string][]byte
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		calls:     make(map[string]int),
		overrides: make(map[string]int),
		bodies:    make(map[string][]byte),
	}
	r := chi.NewRouter()
	r.Use(s.record)
	r.Route("/server/api", func(r chi.Router) {
		r.Get("/", s.root)
		r.Get("/core/communities", s.communities(TopCommunityID, SubCommunityID))
		r.Get("/core/communities/search/top", s.communities(TopCommunityID))
		r.Get("/core/communities/{id}", s.community)
		r.Get("/core/communities/{id}/subcommunities", s.subcommunities)
		r.Get("/core/communities/{id}/collections", s.collections)
		r.Get("/core/collections/{id}", s.collection)
		r.Get("/core/collections/{id}/parentCommunity", s.relation(TopCommunityID, s.communityDoc))
		r.Get("/core/items/{id}", s.item)
		r.Get("/core/items/{id}/owningCollection", s.relation(CollectionID, s.collectionDoc))
		r.Get("/core/bitstreams/{id}", s.bitstream)
		for _, kind := range []string{"communities", "collections", "items"} {
			r.Patch("/core/"+kind+"/{id}", s.mutate)
			r.Delete("/core/"+kind+"/{id}", s.mutate)
		}
		r.Get("/discover/search/objects", s.search)
		r.Get("/discover/facets", s.facets)
		r.Get("/discover/facets/{name}", s.facetValues)
	})
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// RootURL is the API root, the value of DSPACE_REST_URL.
func (s *Server) RootURL() string { return s.URL + "/server/api" }

// Href returns the absolute URL of an API path such as "/core/items/x".
func (s *Server) Href(path string) string { return s.RootURL() + path }

// Calls returns how many requests reached method and API path, e.g.
// Calls("GET", "/core/items/x"). The root document is path "".
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" /server/api"+path]
}

// FailWith makes every request to the API path answer with status.
func (s *Server) FailWith(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides["/server/api"+path] = status
}

// LastBody returns the body of the last request with a body to method and path.
func (s *Server) LastBody(method, path string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bodies[method+" /server/api"+path]
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.calls[key]++
		if len(body) > 0 {
			s.bodies[key] = body
		}
		status, failing := s.overrides[r.URL.Path]
		s.mu.Unlock()
		if failing {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/hal+json")
	_ = json.NewEncoder(w).Encode(v)
}

type obj = map[string]any

func link(href string) obj { return obj{"href": href} }

func metadata(title string) obj {
	return obj{
		"dc.title": []obj{{"value": title, "language": nil, "authority": nil, "confidence": -1, "place": 0}},
	}
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, obj{"_links": obj{
		"self":        link(s.RootURL()),
		"communities": link(s.Href("/core/communities")),
		"collections": link(s.Href("/core/collections")),
		"items":       link(s.Href("/core/items")),
		"bitstreams":  link(s.Href("/core/bitstreams")),
		"discover":    link(s.Href("/discover")),
	}})
}

func (s *Server) communityDoc(id string) obj {
	names := map[string]string{TopCommunityID: "Publications", SubCommunityID: "Theses"}
	name, ok := names[id]
	if !ok {
		return nil
	}
	self := s.Href("/core/communities/" + id)
	md := metadata(name)
	md["dc.description.abstract"] = []obj{{"value": name + " of the repository", "confidence": -1, "place": 0}}
	return obj{
		"id": id, "uuid": id, "name": name, "handle": "123456789/" + name, "type": "community",
		"metadata": md,
		"_links": obj{
			"self":           link(self),
			"logo":           link(self + "/logo"),
			"collections":    link(self + "/collections"),
			"subcommunities": link(self + "/subcommunities"),
		},
	}
}

func (s *Server) collectionDoc(id string) obj {
	if id != CollectionID {
		return nil
	}
	self := s.Href("/core/collections/" + id)
	return obj{
		"id": id, "uuid": id, "name": "Articles", "handle": "123456789/3", "type": "collection",
		"metadata": metadata("Articles"),
		"_links": obj{
			"self":            link(self),
			"logo":            link(self + "/logo"),
			"parentCommunity": link(self + "/parentCommunity"),
		},
	}
}

func (s *Server) itemDoc(id string) obj {
	if id != ItemID {
		return nil
	}
	self := s.Href("/core/items/" + id)
	return obj{
		"id": id, "uuid": id, "name": "Test item", "handle": "123456789/4", "type": "item",
		"inArchive": true, "discoverable": true, "withdrawn": false,
		"lastModified": "2024-03-01T10:00:00.000+00:00",
		"metadata":     metadata("Test item"),
		"_links": obj{
			"self":             link(self),
			"owningCollection": link(self + "/owningCollection"),
			"thumbnail":        link(self + "/thumbnail"),
		},
	}
}

func (s *Server) bitstreamDoc(id string) obj {
	if id != LogoID {
		return nil
	}
	self := s.Href("/core/bitstreams/" + id)
	return obj{
		"id": id, "uuid": id, "name": "logo.png", "type": "bitstream", "sizeBytes": 1024,
		"checkSum": obj{"checkSumAlgorithm": "MD5", "value": "abc"},
		"metadata": metadata("logo.png"),
		"_links":   obj{"self": link(self), "content": link(self + "/content")},
	}
}

func (s *Server) single(lookup func(string) obj) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc := lookup(chi.URLParam(r, "id"))
		if doc == nil {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, doc)
	}
}

func (s *Server) community(w http.ResponseWriter, r *http.Request) {
	s.single(s.communityDoc)(w, r)
}

func (s *Server) collection(w http.ResponseWriter, r *http.Request) {
	s.single(s.collectionDoc)(w, r)
}

func (s *Server) item(w http.ResponseWriter, r *http.Request) {
	s.single(s.itemDoc)(w, r)
}

func (s *Server) bitstream(w http.ResponseWriter, r *http.Request) {
	s.single(s.bitstreamDoc)(w, r)
}

// relation serves a relation endpoint with the target document.
func (s *Server) relation(id string, lookup func(string) obj) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, lookup(id))
	}
}

func page(key string, members []obj, size int) obj {
	if size <= 0 {
		size = 20
	}
	totalPages := 0
	if len(members) > 0 {
		totalPages = (len(members) + size - 1) / size
	}
	return obj{
		"_embedded": obj{key: members},
		"page":      obj{"size": size, "totalElements": len(members), "totalPages": totalPages, "number": 0},
	}
}

func (s *Server) communities(ids ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		members := make([]obj, 0, len(ids))
		for _, id := range ids {
			members = append(members, s.communityDoc(id))
		}
		writeJSON(w, page("communities", members, 0))
	}
}

func (s *Server) subcommunities(w http.ResponseWriter, r *http.Request) {
	var members []obj
	if chi.URLParam(r, "id") == TopCommunityID {
		members = append(members, s.communityDoc(SubCommunityID))
	}
	writeJSON(w, page("subcommunities", members, 0))
}

func (s *Server) collections(w http.ResponseWriter, r *http.Request) {
	var members []obj
	if chi.URLParam(r, "id") == TopCommunityID {
		members = append(members, s.collectionDoc(CollectionID))
	}
	writeJSON(w, page("collections", members, 0))
}

func (s *Server) mutate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodDelete {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	objects := []obj{{
		"hitHighlights": obj{"dc.title": []string{"<em>Test</em> item"}},
		"_embedded":     obj{"indexableObject": s.itemDoc(ItemID)},
	}}
	if r.URL.Query().Get("query") == "nothing" {
		objects = nil
	}
	result := page("objects", objects, 10)
	result["query"] = r.URL.Query().Get("query")
	writeJSON(w, obj{"_embedded": obj{"searchResult": result}})
}

func (s *Server) facets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, obj{"_embedded": obj{"facets": []obj{
		{"name": "author", "facetType": "text", "facetLimit": 5, "openByDefault": true},
		{"name": "subject", "facetType": "hierarchical", "facetLimit": 5},
	}}})
}

func (s *Server) facetValues(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	values := []obj{
		{"label": "Smith, J.", "count": 3, "_links": obj{"search": link(s.Href("/discover/search/objects") + fmt.Sprintf("?f.%s=Smith,equals", name))}},
		{"label": "Doe, A.", "count": 1, "_links": obj{"search": link(s.Href("/discover/search/objects") + fmt.Sprintf("?f.%s=Doe,equals", name))}},
	}
	if prefix := r.URL.Query().Get("prefix"); prefix != "" {
		values = values[:1]
	}
	writeJSON(w, obj{
		"_embedded": obj{"values": values},
		"page":      obj{"size": 5, "totalElements": len(values), "totalPages": 1, "number": 0},
	})
}
