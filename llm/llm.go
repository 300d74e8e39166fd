// Package llm answers cultivation lookups from a generative provider when the
// reference site cannot. Replies are constrained to the same JSON shape the
// scrape path produces, so callers never see which backend answered.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/florawise/plantdetails/config"
	"github.com/florawise/plantdetails/faults"
	"github.com/florawise/plantdetails/models"
)

const systemInstruction = `You are a gardening expert. Provide accurate plant information in JSON format only. When a property is unknown or does not apply to the plant, use null rather than guessing.`

// requiredFields must all be present in a generated reply, even when their
// value is null. A reply missing any of them is rejected.
var requiredFields = []string{"size", "hardiness", "soil", "position", "cultivation_tips", "pruning"}

// Generator produces cultivation details from the generative provider.
type Generator struct {
	client *genai.Client
	model  string
}

// NewGenerator builds a generator from provider settings. The API key is
// required; the client performs no network calls until the first lookup.
func NewGenerator(ctx context.Context, cfg config.GeminiConfig) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Generator{client: client, model: cfg.Model}, nil
}

// Generate asks the provider for cultivation details of a species. The reply
// is schema-constrained and validated before it is accepted.
func (g *Generator) Generate(ctx context.Context, species string) (*models.PlantDetails, error) {
	species = strings.TrimSpace(species)
	if species == "" {
		return nil, faults.Validation("species name cannot be empty")
	}

	contents := []*genai.Content{
		{Role: "system", Parts: []*genai.Part{{Text: systemInstruction}}},
		{Role: "user", Parts: []*genai.Part{{Text: buildPrompt(species)}}},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	})
	if err != nil {
		return nil, classifyProviderError(err)
	}

	return ParseReply([]byte(resp.Text()))
}

func buildPrompt(species string) string {
	return fmt.Sprintf(`Provide cultivation details for the plant %q.

Return a JSON object with exactly these properties:
- "size": object with "height", "spread" and "time_to_height" strings (e.g. "0.5-1 metres", "2-5 years"), or null when unknown
- "hardiness": one-sentence hardiness description including the RHS rating (e.g. "H6: hardy in all of UK and northern Europe"), or null
- "soil": object with "types", "moisture" and "ph_levels" arrays of strings, or null
- "position": object with "sun" array of strings, "aspect" string and "exposure" string, or null
- "cultivation_tips": one short paragraph of planting and growing advice, or null
- "pruning": one short paragraph of pruning advice, or null

Every property must be present. Use null for anything you do not know for this exact plant.`, species)
}

func responseSchema() *genai.Schema {
	str := func() *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Nullable: genai.Ptr(true)}
	}
	strList := func() *genai.Schema {
		return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"size": {
				Type:     genai.TypeObject,
				Nullable: genai.Ptr(true),
				Properties: map[string]*genai.Schema{
					"height":         str(),
					"spread":         str(),
					"time_to_height": str(),
				},
			},
			"hardiness": str(),
			"soil": {
				Type:     genai.TypeObject,
				Nullable: genai.Ptr(true),
				Properties: map[string]*genai.Schema{
					"types":     strList(),
					"moisture":  strList(),
					"ph_levels": strList(),
				},
			},
			"position": {
				Type:     genai.TypeObject,
				Nullable: genai.Ptr(true),
				Properties: map[string]*genai.Schema{
					"sun":      strList(),
					"aspect":   str(),
					"exposure": str(),
				},
			},
			"cultivation_tips": str(),
			"pruning":          str(),
		},
		Required: requiredFields,
	}
}

// ParseReply validates a raw provider reply and decodes it. Malformed JSON is
// a parsing fault; well-formed JSON missing a required property is a
// validation fault, since the provider broke the reply contract.
func ParseReply(raw []byte) (*models.PlantDetails, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, faults.Parsing("generated reply is not valid JSON", err)
	}
	for _, field := range requiredFields {
		if _, ok := fields[field]; !ok {
			return nil, faults.New(faults.CodeValidation, http.StatusUnprocessableEntity,
				fmt.Sprintf("generated reply is missing required field %q", field))
		}
	}

	var details models.PlantDetails
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil, faults.Parsing("generated reply does not match the details shape", err)
	}
	return &details, nil
}

// classifyProviderError maps provider call failures onto the closed fault
// set. Provider-side rejections (auth, quota, server errors) all surface as
// service faults so the caller's contract stays small.
func classifyProviderError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		f := faults.New(faults.CodeTimeout, http.StatusGatewayTimeout, "generative provider timed out")
		f.Err = err
		return f.WithDetail("error", err.Error())
	}
	if errors.Is(err, context.Canceled) {
		return faults.Timeout("generation cancelled by caller", err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		f := faults.New(faults.CodeService, http.StatusServiceUnavailable,
			fmt.Sprintf("generative provider rejected the request with status %d", apiErr.Code))
		f.Err = err
		return f.WithDetail("error", err.Error())
	}
	return faults.From(err)
}
