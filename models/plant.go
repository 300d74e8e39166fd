// Package models defines the data structures exchanged by the lookup services.
package models

// Size holds the plant's ultimate dimensions as free-text measurements.
// No unit normalization is performed; each field is absent when the source
// page has no recorded value for it.
type Size struct {
	Height       *string `json:"height,omitempty"`
	Spread       *string `json:"spread,omitempty"`
	TimeToHeight *string `json:"time_to_height,omitempty"`
}

// Soil holds the soil requirements for a plant. The lists preserve source
// presentation order; an empty list means the source recorded nothing.
type Soil struct {
	Types    []string `json:"types"`
	Moisture []string `json:"moisture"`
	PHLevels []string `json:"ph_levels"`
}

// Position holds sunlight and shelter requirements. Sun is an ordered list of
// descriptors; single-value consumers should read the first element.
type Position struct {
	Sun      []string `json:"sun,omitempty"`
	Aspect   *string  `json:"aspect,omitempty"`
	Exposure *string  `json:"exposure,omitempty"`
}

// PlantDetails aggregates the cultivation data resolved for one species.
// Every field may be absent; absent fields are omitted from the JSON encoding
// rather than emitted as null.
type PlantDetails struct {
	Size            *Size     `json:"size,omitempty"`
	Hardiness       *string   `json:"hardiness,omitempty"`
	Soil            *Soil     `json:"soil,omitempty"`
	Position        *Position `json:"position,omitempty"`
	CultivationTips *string   `json:"cultivation_tips,omitempty"`
	Pruning         *string   `json:"pruning,omitempty"`
}

// SearchCandidate is one entry from the search endpoint: the rendered display
// name and the opaque id used to build the detail-page locator.
type SearchCandidate struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// String returns a pointer to s, for building optional fields in place.
func String(s string) *string {
	return &s
}
