// Package events implements Server-Sent Events for real-time library updates and event broadcasting.
package events

import (
	"time"

	"github.com/keepstackapp/keepstack-server/internal/domain"
)

// Keepstack uses SSE for server-to-client notifications only. Clients save
// and edit articles through the REST API and hear about resulting changes
// (including drop-folder ingests) through this stream.

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventArticleCreated represents an article creation event.
	EventArticleCreated EventType = "article.created"
	// EventArticleUpdated represents an article update event.
	EventArticleUpdated EventType = "article.updated"
	// EventArticleDeleted represents an article deletion event.
	EventArticleDeleted EventType = "article.deleted"

	// EventIngestStarted represents the start of a document ingest.
	EventIngestStarted EventType = "ingest.started"
	// EventIngestCompleted represents a finished document ingest.
	EventIngestCompleted EventType = "ingest.completed"
	// EventIngestFailed represents a failed document ingest.
	EventIngestFailed EventType = "ingest.failed"

	// EventTagCreated represents a tag creation event.
	EventTagCreated EventType = "tag.created"
	// EventTagDeleted represents a tag deletion event.
	EventTagDeleted EventType = "tag.deleted"

	// EventHighlightCreated represents a highlight creation event.
	EventHighlightCreated EventType = "highlight.created"
	// EventHighlightDeleted represents a highlight deletion event.
	EventHighlightDeleted EventType = "highlight.deleted"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"` // Event-specific data as JSON object
	Type      EventType `json:"type"`

	// UserID filters delivery to a single user's clients. Empty means
	// broadcast to everyone (heartbeats only). Not sent to clients.
	UserID string `json:"-"`
}

// ArticleEventData is the data payload for article events. The article is
// sent without its binary payload; clients fetch file data separately.
type ArticleEventData struct {
	Article *domain.Article `json:"article"`
}

// ArticleDeletedEventData is the data payload for article delete events.
type ArticleDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	ArticleID string    `json:"article_id"`
}

// IngestStartedEventData is the data payload for ingest start events.
type IngestStartedEventData struct {
	StartedAt time.Time `json:"started_at"`
	Source    string    `json:"source"` // "url", "upload", or "drop-folder"
	Name      string    `json:"name"`   // URL or file name
}

// IngestCompletedEventData is the data payload for ingest completion events.
type IngestCompletedEventData struct {
	CompletedAt time.Time `json:"completed_at"`
	ArticleID   string    `json:"article_id"`
	Source      string    `json:"source"`
}

// IngestFailedEventData is the data payload for ingest failure events.
type IngestFailedEventData struct {
	FailedAt time.Time `json:"failed_at"`
	Source   string    `json:"source"`
	Name     string    `json:"name"`
	Error    string    `json:"error"`
}

// TagEventData is the data payload for tag events.
type TagEventData struct {
	Tag *domain.Tag `json:"tag"`
}

// HighlightEventData is the data payload for highlight events.
type HighlightEventData struct {
	Highlight *domain.Highlight `json:"highlight"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// stripBinary returns a copy of the article without the base64 file payload.
// Event streams should stay small even for multi-megabyte EPUBs.
func stripBinary(a *domain.Article) *domain.Article {
	if a == nil || a.FileData == "" {
		return a
	}
	clone := *a
	clone.FileData = ""
	return &clone
}

// NewArticleCreatedEvent creates an article.created event for the owner.
func NewArticleCreatedEvent(a *domain.Article) Event {
	return Event{
		Type:      EventArticleCreated,
		Timestamp: time.Now(),
		UserID:    a.UserID,
		Data:      ArticleEventData{Article: stripBinary(a)},
	}
}

// NewArticleUpdatedEvent creates an article.updated event for the owner.
func NewArticleUpdatedEvent(a *domain.Article) Event {
	return Event{
		Type:      EventArticleUpdated,
		Timestamp: time.Now(),
		UserID:    a.UserID,
		Data:      ArticleEventData{Article: stripBinary(a)},
	}
}

// NewArticleDeletedEvent creates an article.deleted event for the owner.
func NewArticleDeletedEvent(userID, articleID string) Event {
	now := time.Now()
	return Event{
		Type:      EventArticleDeleted,
		Timestamp: now,
		UserID:    userID,
		Data:      ArticleDeletedEventData{DeletedAt: now, ArticleID: articleID},
	}
}

// NewIngestStartedEvent creates an ingest.started event for the owner.
func NewIngestStartedEvent(userID, source, name string) Event {
	now := time.Now()
	return Event{
		Type:      EventIngestStarted,
		Timestamp: now,
		UserID:    userID,
		Data:      IngestStartedEventData{StartedAt: now, Source: source, Name: name},
	}
}

// NewIngestCompletedEvent creates an ingest.completed event for the owner.
func NewIngestCompletedEvent(userID, source, articleID string) Event {
	now := time.Now()
	return Event{
		Type:      EventIngestCompleted,
		Timestamp: now,
		UserID:    userID,
		Data:      IngestCompletedEventData{CompletedAt: now, ArticleID: articleID, Source: source},
	}
}

// NewIngestFailedEvent creates an ingest.failed event for the owner.
func NewIngestFailedEvent(userID, source, name string, err error) Event {
	now := time.Now()
	data := IngestFailedEventData{FailedAt: now, Source: source, Name: name}
	if err != nil {
		data.Error = err.Error()
	}
	return Event{
		Type:      EventIngestFailed,
		Timestamp: now,
		UserID:    userID,
		Data:      data,
	}
}

// NewTagCreatedEvent creates a tag.created event for the owner.
func NewTagCreatedEvent(t *domain.Tag) Event {
	return Event{
		Type:      EventTagCreated,
		Timestamp: time.Now(),
		UserID:    t.UserID,
		Data:      TagEventData{Tag: t},
	}
}

// NewTagDeletedEvent creates a tag.deleted event for the owner.
func NewTagDeletedEvent(t *domain.Tag) Event {
	return Event{
		Type:      EventTagDeleted,
		Timestamp: time.Now(),
		UserID:    t.UserID,
		Data:      TagEventData{Tag: t},
	}
}

// NewHighlightCreatedEvent creates a highlight.created event for the owner.
func NewHighlightCreatedEvent(h *domain.Highlight) Event {
	return Event{
		Type:      EventHighlightCreated,
		Timestamp: time.Now(),
		UserID:    h.UserID,
		Data:      HighlightEventData{Highlight: h},
	}
}

// NewHighlightDeletedEvent creates a highlight.deleted event for the owner.
func NewHighlightDeletedEvent(h *domain.Highlight) Event {
	return Event{
		Type:      EventHighlightDeleted,
		Timestamp: time.Now(),
		UserID:    h.UserID,
		Data:      HighlightEventData{Highlight: h},
	}
}

// NewHeartbeatEvent creates a heartbeat event delivered to all clients.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Timestamp: now,
		Data:      HeartbeatEventData{ServerTime: now},
	}
}
