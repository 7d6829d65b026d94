package parsing

import (
	"encoding/json"

	"github.com/illmade-knight/go-remotedata/pkg/cache"
	"github.com/illmade-knight/go-remotedata/pkg/hal"
	"github.com/illmade-knight/go-remotedata/pkg/request"
	"github.com/illmade-knight/go-remotedata/pkg/rest"
)

// EndpointMapParser handles the API root document. The payload is a JSON object
// mapping link names to hrefs.
type EndpointMapParser struct{}

// Parse implements request.Parser.
func (EndpointMapParser) Parse(_ *request.Request, raw *rest.Response) (*request.Parsed, error) {
	links, err := hal.ParseLinks(raw.Body)
	if err != nil {
		return nil, err
	}
	endpoints := make(map[string]string, len(links))
	for name, l := range links {
		endpoints[name] = l.Href
	}
	payload, err := json.Marshal(endpoints)
	if err != nil {
		return nil, err
	}
	return &request.Parsed{Response: &cache.Response{
		IsSuccessful: true,
		StatusCode:   raw.StatusCode,
		StatusText:   raw.StatusText,
		Payload:      payload,
	}}, nil
}
