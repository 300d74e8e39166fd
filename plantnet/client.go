// Package plantnet identifies a plant species from a photo via the PlantNet
// API, giving callers a species name they can feed into a details lookup.
package plantnet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/florawise/plantdetails/config"
	"github.com/florawise/plantdetails/faults"
)

// Match is one identification result, ordered by descending confidence.
type Match struct {
	Species     string   `json:"species"`
	Genus       string   `json:"genus,omitempty"`
	Score       float64  `json:"score"`
	CommonNames []string `json:"common_names,omitempty"`
	ImageURLs   []string `json:"image_urls,omitempty"`
}

// maxImageURLs caps how many reference photos each match carries.
const maxImageURLs = 3

// Client calls the identification API. A local rate limiter keeps bursts of
// uploads inside the API's free-tier allowance.
type Client struct {
	cfg        config.PlantNetConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient builds a client from API settings.
func NewClient(cfg config.PlantNetConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(1), 3),
	}
}

// Identify uploads one photo and returns the top matches. organ names the
// pictured plant part ("leaf", "flower", "fruit", "bark"); an empty organ
// lets the API decide.
func (c *Client) Identify(ctx context.Context, image io.Reader, filename, organ string) ([]Match, error) {
	if c.cfg.APIKey == "" {
		return nil, faults.New(faults.CodeService, http.StatusServiceUnavailable, "identification service is not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, faults.From(err)
	}

	body, contentType, err := encodeUpload(image, filename, organ)
	if err != nil {
		return nil, faults.Service("encode identification upload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.identifyURL(), body)
	if err != nil {
		return nil, faults.Service("build identification request", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp)
}

func (c *Client) identifyURL() string {
	q := url.Values{}
	q.Set("api-key", c.cfg.APIKey)
	q.Set("nb-results", fmt.Sprintf("%d", c.cfg.NumResults))
	q.Set("include-related-images", "true")
	return fmt.Sprintf("%s/%s?%s", strings.TrimSuffix(c.cfg.BaseURL, "/"), c.cfg.Project, q.Encode())
}

// encodeUpload builds the multipart body in memory. Uploads are single photos
// already capped by the HTTP layer, so streaming is not worth the plumbing.
func encodeUpload(image io.Reader, filename, organ string) (io.Reader, string, error) {
	var buf strings.Builder
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("images", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, "", err
	}
	if organ != "" {
		if err := w.WriteField("organs", organ); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return strings.NewReader(buf.String()), w.FormDataContentType(), nil
}

// apiResponse mirrors the slice of the API reply this client consumes.
type apiResponse struct {
	Results []struct {
		Score   float64 `json:"score"`
		Species struct {
			ScientificNameWithoutAuthor string   `json:"scientificNameWithoutAuthor"`
			CommonNames                 []string `json:"commonNames"`
			Genus                       struct {
				ScientificNameWithoutAuthor string `json:"scientificNameWithoutAuthor"`
			} `json:"genus"`
		} `json:"species"`
		Images []struct {
			URL struct {
				M string `json:"m"`
			} `json:"url"`
		} `json:"images"`
	} `json:"results"`
}

func decodeResponse(resp *http.Response) ([]Match, error) {
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, faults.NoResults("no species matched the submitted photo")
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return nil, faults.New(faults.CodeService, http.StatusServiceUnavailable,
			fmt.Sprintf("identification service rejected the request with status %d", resp.StatusCode))
	default:
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, faults.Service(fmt.Sprintf("unexpected status %d from identification service", resp.StatusCode), nil)
		}
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, faults.Parsing("decode identification response", err)
	}

	matches := make([]Match, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		m := Match{
			Species:     r.Species.ScientificNameWithoutAuthor,
			Genus:       r.Species.Genus.ScientificNameWithoutAuthor,
			Score:       r.Score,
			CommonNames: r.Species.CommonNames,
		}
		for _, img := range r.Images {
			if img.URL.M == "" {
				continue
			}
			m.ImageURLs = append(m.ImageURLs, img.URL.M)
			if len(m.ImageURLs) == maxImageURLs {
				break
			}
		}
		matches = append(matches, m)
	}
	if len(matches) == 0 {
		return nil, faults.NoResults("no species matched the submitted photo")
	}
	return matches, nil
}

func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return faults.Timeout("identification request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return faults.Timeout("identification request timed out", err)
	}
	return faults.Network("failed to reach identification service", err)
}
