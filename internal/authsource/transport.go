package authsource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// jsonRefreshTransport converts the oauth2 package's form-encoded token
// requests to JSON for providers whose token endpoints require JSON bodies.
// The oauth2 package guarantees this transport only receives token endpoint
// requests.
type jsonRefreshTransport struct {
	base http.RoundTripper
}

// Compile-time check that jsonRefreshTransport implements http.RoundTripper.
var _ http.RoundTripper = (*jsonRefreshTransport)(nil)

// RoundTrip rewrites the request body from form encoding to JSON.
func (t *jsonRefreshTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// The body is consumed entirely and replaced on the cloned request, so
	// close the original here rather than forwarding it.
	defer func() { _ = req.Body.Close() }()
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}

	formData, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("parsing form data: %w", err)
	}

	jsonData := make(map[string]string, len(formData))
	for key, values := range formData {
		jsonData[key] = values[0] // OAuth2 spec defines single-value parameters
	}

	jsonBody, err := json.Marshal(jsonData)
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON request: %w", err)
	}

	newReq := req.Clone(req.Context())
	newReq.Body = io.NopCloser(bytes.NewReader(jsonBody))
	newReq.ContentLength = int64(len(jsonBody))
	newReq.Header.Set("Content-Type", "application/json")

	return t.base.RoundTrip(newReq)
}
