package project

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// NullDate stands in for a date given as JSON null, which the page reads as
// the Unix epoch.
const NullDate = "1970-01-01T00:00:00Z"

// Project is one entry of the gallery document.
type Project struct {
	StartOn      string `json:"start_on"`
	Created      string `json:"created"`
	Title        string `json:"title"`
	HeroImageURL string `json:"hero_image_url"`
}

// UnmarshalJSON keeps a null date apart from a missing one: null becomes
// NullDate, a missing key stays empty and never yields a year. Numbers are
// milliseconds since the epoch.
func (p *Project) UnmarshalJSON(data []byte) error {
	type plain Project
	var raw struct {
		plain
		StartOn json.RawMessage `json:"start_on"`
		Created json.RawMessage `json:"created"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Project(raw.plain)
	p.StartOn = decodeDate(raw.StartOn)
	p.Created = decodeDate(raw.Created)
	return nil
}

func decodeDate(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	if string(raw) == "null" {
		return NullDate
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339Nano)
	}
	return ""
}

// Document is the JSON asset shape: {"projects": [...]}.
type Document struct {
	Projects []Project `json:"projects"`
}

// Decode parses a gallery document and returns its projects.
func Decode(r io.Reader) ([]Project, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	return doc.Projects, nil
}
