package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
)

// Event type names.
const (
	TypeBuildStarted   = "build.started"
	TypePageBuilt      = "page.built"
	TypePageFailed     = "page.failed"
	TypePageStale      = "page.stale"
	TypeBuildCompleted = "build.completed"
)

func newBase(buildID, eventType string, body any) (BaseEvent, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return BaseEvent{}, errors.EventStoreError("failed to marshal event payload").
			WithCause(err).
			WithContext("build_id", buildID).
			WithContext("event_type", eventType).
			Build()
	}
	return BaseEvent{
		EventBuildID:   buildID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   payload,
	}, nil
}

// BuildStartedData describes the work scheduled by a build.
type BuildStartedData struct {
	Incremental bool `json:"incremental"`
	Pages       int  `json:"pages"`
	Added       int  `json:"added"`
	Changed     int  `json:"changed"`
	Removed     int  `json:"removed"`
	Stale       int  `json:"stale"`
	Workers     int  `json:"workers"`
}

// BuildStarted is emitted once the page queue is known.
type BuildStarted struct {
	BaseEvent
	Data BuildStartedData
}

// NewBuildStarted creates a BuildStarted event.
func NewBuildStarted(buildID string, data BuildStartedData) (*BuildStarted, error) {
	base, err := newBase(buildID, TypeBuildStarted, data)
	if err != nil {
		return nil, err
	}
	return &BuildStarted{BaseEvent: base, Data: data}, nil
}

// PageBuiltData describes a successfully written page.
type PageBuiltData struct {
	Page       string   `json:"page"`
	Symbols    []string `json:"symbols,omitempty"`
	Unresolved int      `json:"unresolved"`
}

// PageBuilt is emitted when a page's output has been written.
type PageBuilt struct {
	BaseEvent
	Data PageBuiltData
}

// NewPageBuilt creates a PageBuilt event.
func NewPageBuilt(buildID string, data PageBuiltData) (*PageBuilt, error) {
	base, err := newBase(buildID, TypePageBuilt, data)
	if err != nil {
		return nil, err
	}
	base.EventMetadata = map[string]string{"page": data.Page}
	return &PageBuilt{BaseEvent: base, Data: data}, nil
}

// PageFailedData describes a page that could not be processed.
type PageFailedData struct {
	Page     string `json:"page"`
	Category string `json:"category"`
	Error    string `json:"error"`
}

// PageFailed is emitted for every page-level error.
type PageFailed struct {
	BaseEvent
	Data PageFailedData
}

// NewPageFailed creates a PageFailed event from err.
func NewPageFailed(buildID, page string, err error) (*PageFailed, error) {
	data := PageFailedData{
		Page:     page,
		Category: string(errors.GetCategory(err)),
		Error:    err.Error(),
	}
	base, mErr := newBase(buildID, TypePageFailed, data)
	if mErr != nil {
		return nil, mErr
	}
	base.EventMetadata = map[string]string{"page": page}
	return &PageFailed{BaseEvent: base, Data: data}, nil
}

// PageStaleData records why an unchanged page was rebuilt.
type PageStaleData struct {
	Page string `json:"page"`
}

// PageStale is emitted for pages scheduled because a source changed.
type PageStale struct {
	BaseEvent
	Data PageStaleData
}

// NewPageStale creates a PageStale event.
func NewPageStale(buildID, page string) (*PageStale, error) {
	data := PageStaleData{Page: page}
	base, err := newBase(buildID, TypePageStale, data)
	if err != nil {
		return nil, err
	}
	base.EventMetadata = map[string]string{"page": page}
	return &PageStale{BaseEvent: base, Data: data}, nil
}

// BuildCompletedData summarizes a finished build.
type BuildCompletedData struct {
	Status     string `json:"status"`
	Built      int    `json:"built"`
	Failed     int    `json:"failed"`
	Removed    int    `json:"removed"`
	Unresolved int    `json:"unresolved"`
	DurationMS int64  `json:"duration_ms"`
}

// BuildCompleted is emitted when a build finishes, successfully or not.
type BuildCompleted struct {
	BaseEvent
	Data BuildCompletedData
}

// NewBuildCompleted creates a BuildCompleted event.
func NewBuildCompleted(buildID string, data BuildCompletedData) (*BuildCompleted, error) {
	base, err := newBase(buildID, TypeBuildCompleted, data)
	if err != nil {
		return nil, err
	}
	return &BuildCompleted{BaseEvent: base, Data: data}, nil
}
