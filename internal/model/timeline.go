package model

import "time"

// Timeline is the flattened, time-ordered render plan derived from a
// Project. It is passed by value into the render pipeline; the pipeline
// never mutates the caller's copy.
type Timeline struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Duration        float64          `json:"duration"` // seconds, derived
	FrameRate       int              `json:"frameRate"`
	Width           int              `json:"width"`
	Height          int              `json:"height"`
	BackgroundColor string           `json:"backgroundColor"`
	Segments        []Segment        `json:"segments"`
	Transitions     []Transition     `json:"transitions,omitempty"`
	AudioTracks     []AudioTrack     `json:"audioTracks,omitempty"`
	TextOverlays    []TextOverlay    `json:"textOverlays,omitempty"`
	Effects         []Effect         `json:"effects,omitempty"`
	Metadata        TimelineMetadata `json:"metadata"`
}

// TimelineMetadata records where a timeline came from.
type TimelineMetadata struct {
	ProjectID     string    `json:"projectId,omitempty"`
	SchemaVersion string    `json:"schemaVersion"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Segment is one contiguous span of the timeline backed by a single video
// source, or a placeholder when the scene had only images.
type Segment struct {
	ID          string   `json:"id"`
	SourceURL   string   `json:"sourceUrl,omitempty"` // empty for placeholders
	Placeholder bool     `json:"placeholder,omitempty"`
	StartTime   float64  `json:"startTime"`
	Duration    float64  `json:"duration"`
	TrimStart   float64  `json:"trimStart"`
	TrimEnd     float64  `json:"trimEnd"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	Width       float64  `json:"width,omitempty"`
	Height      float64  `json:"height,omitempty"`
	Opacity     float64  `json:"opacity"`
	Scale       float64  `json:"scale"`
	Rotation    float64  `json:"rotation"`
	Effects     []Effect `json:"effects,omitempty"`
}

// EndTime returns the segment's end position on the timeline.
func (s Segment) EndTime() float64 {
	return s.StartTime + s.Duration
}

// Transition is a short crossfade between two consecutive segments.
type Transition struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Duration  float64 `json:"duration"`
	Position  float64 `json:"position"` // on the timeline, seconds
	Direction string  `json:"direction,omitempty"`
	Intensity float64 `json:"intensity,omitempty"`
}

// Effect is an informational hint consumed by the rendering backend.
type Effect struct {
	Type               string  `json:"type"`
	Intensity          float64 `json:"intensity"`
	MotionCompensating bool    `json:"motionCompensating,omitempty"`
}

// AudioTrack is carried through to the backend untouched.
type AudioTrack struct {
	ID        string  `json:"id"`
	URL       string  `json:"url"`
	StartTime float64 `json:"startTime"`
	Duration  float64 `json:"duration"`
	Volume    float64 `json:"volume"`
}

// TextOverlay is carried through to the backend untouched.
type TextOverlay struct {
	ID        string  `json:"id"`
	Text      string  `json:"text"`
	StartTime float64 `json:"startTime"`
	Duration  float64 `json:"duration"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	FontSize  int     `json:"fontSize,omitempty"`
	Color     string  `json:"color,omitempty"`
}

// RenderSettings are the frame-level parameters of a timeline. Zero-value
// fields fall back to the builder defaults.
type RenderSettings struct {
	Width           int    `json:"width,omitempty"`
	Height          int    `json:"height,omitempty"`
	FrameRate       int    `json:"frameRate,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
}
