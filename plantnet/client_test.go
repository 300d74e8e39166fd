package plantnet

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/florawise/plantdetails/config"
	"github.com/florawise/plantdetails/faults"
)

const identifyReply = `{
	"results": [
		{
			"score": 0.91,
			"species": {
				"scientificNameWithoutAuthor": "Tulipa gesneriana",
				"commonNames": ["Didier's tulip", "Garden tulip"],
				"genus": {"scientificNameWithoutAuthor": "Tulipa"}
			},
			"images": [
				{"url": {"m": "https://images.example.com/1-m.jpg"}},
				{"url": {"m": "https://images.example.com/2-m.jpg"}},
				{"url": {"m": "https://images.example.com/3-m.jpg"}},
				{"url": {"m": "https://images.example.com/4-m.jpg"}}
			]
		},
		{
			"score": 0.04,
			"species": {
				"scientificNameWithoutAuthor": "Tulipa kaufmanniana",
				"genus": {"scientificNameWithoutAuthor": "Tulipa"}
			},
			"images": []
		}
	]
}`

func testClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()
	c := NewClient(config.PlantNetConfig{
		APIKey:     "test-key",
		BaseURL:    "https://identify.example.com/v2/identify",
		Project:    "all",
		NumResults: 3,
		Timeout:    2 * time.Second,
	})
	transport := httpmock.NewMockTransport()
	c.httpClient.Transport = transport
	return c, transport
}

func TestIdentify(t *testing.T) {
	c, transport := testClient(t)
	transport.RegisterResponder(http.MethodPost, "https://identify.example.com/v2/identify/all",
		httpmock.NewStringResponder(http.StatusOK, identifyReply))

	got, err := c.Identify(context.Background(), strings.NewReader("jpeg-bytes"), "photo.jpg", "flower")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d matches, want 2", len(got))
	}
	top := got[0]
	if top.Species != "Tulipa gesneriana" || top.Genus != "Tulipa" || top.Score != 0.91 {
		t.Fatalf("top match = %+v", top)
	}
	if len(top.ImageURLs) != maxImageURLs {
		t.Fatalf("got %d image urls, want cap of %d", len(top.ImageURLs), maxImageURLs)
	}
	if len(got[1].CommonNames) != 0 || len(got[1].ImageURLs) != 0 {
		t.Fatalf("second match should have no names or images: %+v", got[1])
	}
}

func TestIdentifyStatusFaults(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode faults.Code
	}{
		{"no match", http.StatusNotFound, faults.CodeNoResults},
		{"bad key", http.StatusUnauthorized, faults.CodeService},
		{"rate limited", http.StatusTooManyRequests, faults.CodeService},
		{"server error", http.StatusInternalServerError, faults.CodeService},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, transport := testClient(t)
			transport.RegisterResponder(http.MethodPost, "https://identify.example.com/v2/identify/all",
				httpmock.NewStringResponder(tc.status, `{"message": "nope"}`))

			_, err := c.Identify(context.Background(), strings.NewReader("jpeg-bytes"), "photo.jpg", "")
			f, ok := faults.As(err)
			if !ok || f.Code != tc.wantCode {
				t.Fatalf("expected %s, got %v", tc.wantCode, err)
			}
		})
	}
}

func TestIdentifyMalformedReply(t *testing.T) {
	c, transport := testClient(t)
	transport.RegisterResponder(http.MethodPost, "https://identify.example.com/v2/identify/all",
		httpmock.NewStringResponder(http.StatusOK, "not json"))

	_, err := c.Identify(context.Background(), strings.NewReader("jpeg-bytes"), "photo.jpg", "")
	f, ok := faults.As(err)
	if !ok || f.Code != faults.CodeParsing {
		t.Fatalf("expected a parsing fault, got %v", err)
	}
}

func TestIdentifyEmptyResults(t *testing.T) {
	c, transport := testClient(t)
	transport.RegisterResponder(http.MethodPost, "https://identify.example.com/v2/identify/all",
		httpmock.NewStringResponder(http.StatusOK, `{"results": []}`))

	_, err := c.Identify(context.Background(), strings.NewReader("jpeg-bytes"), "photo.jpg", "")
	f, ok := faults.As(err)
	if !ok || f.Code != faults.CodeNoResults {
		t.Fatalf("expected a no-results fault, got %v", err)
	}
}

func TestIdentifyMissingKey(t *testing.T) {
	c := NewClient(config.PlantNetConfig{BaseURL: "https://identify.example.com/v2/identify", Project: "all"})

	_, err := c.Identify(context.Background(), strings.NewReader("jpeg-bytes"), "photo.jpg", "")
	f, ok := faults.As(err)
	if !ok || f.Code != faults.CodeService {
		t.Fatalf("expected a service fault, got %v", err)
	}
}
