package scene

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// Kind represents the object type of an entity with predefined constants for type safety
type Kind string

const (
	KindGeometry   Kind = "geometry"
	KindLight      Kind = "light"
	KindGrip       Kind = "grip"
	KindAnnotation Kind = "annotation"
	KindBlock      Kind = "block"
	KindCurve      Kind = "curve"
	KindMesh       Kind = "mesh"
)

// Space is the drawing space an entity lives in
type Space string

const (
	SpaceModel  Space = "model"
	SpaceLayout Space = "layout"
)

// MaxNameLength is the longest name a host document accepts
const MaxNameLength = 255

type Entity struct {
	ID          string    `json:"id" yaml:"id" mapstructure:"id"`
	Name        string    `json:"name" yaml:"name" mapstructure:"name"`
	Kind        Kind      `json:"kind" yaml:"kind" mapstructure:"kind"`
	Space       Space     `json:"space" yaml:"space" mapstructure:"space"`
	Hidden      bool      `json:"hidden" yaml:"hidden" mapstructure:"hidden"`
	Locked      bool      `json:"locked" yaml:"locked" mapstructure:"locked"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	CreatedAt   time.Time `json:"createdAt" yaml:"-" mapstructure:"-"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"-" mapstructure:"-"`
}

// IsNamed reports whether the entity carries a non-blank name
func (e Entity) IsNamed() bool {
	return strings.TrimSpace(e.Name) != ""
}

// InModelSpace reports whether the entity belongs to model space. An unset
// space is treated as model space.
func (e Entity) InModelSpace() bool {
	return e.Space == "" || e.Space == SpaceModel
}

// NewID generates a globally unique entity ID
func NewID() string {
	return uuid.New().String()
}

// ValidateName reports why a host document would reject name, or "" if it is acceptable.
// Empty names are accepted: they clear the name.
func ValidateName(name string) string {
	if len(name) > MaxNameLength {
		return "name exceeds maximum length"
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "name contains control characters"
		}
	}
	return ""
}
