package model

import "time"

// Project is the read-only input to timeline construction: an ordered set
// of scenes carrying generated assets. Persistence of projects lives in a
// separate service; this API only ever consumes them.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Scenes    []Scene   `json:"scenes"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Scene holds the generated assets for one narrative beat of a project.
type Scene struct {
	ID     string           `json:"id"`
	Title  string           `json:"title,omitempty"`
	Videos []GeneratedVideo `json:"videos,omitempty"`
	Images []GeneratedImage `json:"images,omitempty"`
}

// GeneratedVideo is a rendered clip produced by an upstream generation service.
type GeneratedVideo struct {
	ID       string  `json:"id"`
	URL      string  `json:"url"`
	Duration float64 `json:"duration"` // seconds
	Style    string  `json:"style,omitempty"`
	Motion   string  `json:"motion,omitempty"` // "low", "medium", "high"
}

// GeneratedImage is a still produced by an upstream generation service.
// Scenes that have images but no video get a placeholder segment instead.
type GeneratedImage struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Prompt string `json:"prompt,omitempty"`
}

// VideoCount returns the total number of generated videos across all scenes.
func (p *Project) VideoCount() int {
	count := 0
	for _, scene := range p.Scenes {
		count += len(scene.Videos)
	}
	return count
}
