// Package playlist manages persisted playlist definitions.
package playlist

import (
	"time"

	"github.com/google/uuid"
)

// SourceType identifies where a playlist's content comes from.
type SourceType string

// Supported source types.
const (
	SourceURL  SourceType = "url"
	SourceFile SourceType = "file"
)

// Valid reports whether t is a known source type.
func (t SourceType) Valid() bool {
	return t == SourceURL || t == SourceFile
}

// Playlist is a named channel source definition. Only definitions are
// persisted; the channels they expand into are re-parsed on every load.
type Playlist struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	SourceType  SourceType `json:"source_type"`
	SourceValue string     `json:"source_value"`
	Order       int        `json:"order"`
	CreatedAt   time.Time  `json:"created_at"`
}

// New creates a playlist definition with a generated id and creation
// timestamp. Order is assigned by the Definitions store on Add.
func New(name string, sourceType SourceType, sourceValue string) Playlist {
	return Playlist{
		ID:          uuid.New().String(),
		Name:        name,
		SourceType:  sourceType,
		SourceValue: sourceValue,
		CreatedAt:   time.Now(),
	}
}
