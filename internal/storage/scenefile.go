package storage

import (
	"os"
	"strings"

	"github.com/JamesPrial/scene-namer/pkg/errors"
	"github.com/JamesPrial/scene-namer/pkg/scene"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// SceneDocument is the on-disk form of a scene: its entities in document
// order and the IDs of the current selection.
type SceneDocument struct {
	Entities  []scene.Entity `yaml:"entities"`
	Selection []string       `yaml:"selection,omitempty"`
}

type rawScene struct {
	Entities  []map[string]interface{} `yaml:"entities"`
	Selection []string                 `yaml:"selection"`
}

// LoadScene reads a YAML scene file
func LoadScene(path string) (*SceneDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeStorageInitialization, "failed to read scene file %s", path)
	}
	return ParseScene(data)
}

// ParseScene decodes YAML scene data. Records are decoded loosely: missing
// IDs are generated, a missing kind defaults to geometry, and a record with
// `selected: true` is appended to the selection.
func ParseScene(data []byte) (*SceneDocument, error) {
	var raw rawScene
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidationFormat, "invalid scene YAML")
	}

	doc := &SceneDocument{Entities: make([]scene.Entity, 0, len(raw.Entities))}
	selected := make(map[string]bool)
	for _, id := range raw.Selection {
		if !selected[id] {
			selected[id] = true
			doc.Selection = append(doc.Selection, id)
		}
	}

	for i, record := range raw.Entities {
		entity, isSelected, err := decodeEntity(record)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeValidationFormat, "invalid scene entity at index %d", i)
		}
		if reason := scene.ValidateName(entity.Name); reason != "" {
			return nil, errors.ValidationInvalid("name", reason).WithDetails(map[string]interface{}{"index": i, "id": entity.ID})
		}
		doc.Entities = append(doc.Entities, entity)
		if isSelected && !selected[entity.ID] {
			selected[entity.ID] = true
			doc.Selection = append(doc.Selection, entity.ID)
		}
	}
	return doc, nil
}

func decodeEntity(record map[string]interface{}) (scene.Entity, bool, error) {
	var entity scene.Entity

	isSelected := false
	if v, ok := record["selected"]; ok {
		b, ok := v.(bool)
		if !ok {
			return entity, false, errors.New(errors.ErrCodeValidationFormat, "selected must be a boolean")
		}
		isSelected = b
		delete(record, "selected")
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &entity,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return entity, false, err
	}
	if err := decoder.Decode(record); err != nil {
		return entity, false, err
	}

	if strings.TrimSpace(entity.ID) == "" {
		entity.ID = scene.NewID()
	}
	if entity.Kind == "" {
		entity.Kind = scene.KindGeometry
	}
	if entity.Space == "" {
		entity.Space = scene.SpaceModel
	}
	return entity, isSelected, nil
}

// SaveScene writes doc to path as YAML
func SaveScene(path string, doc *SceneDocument) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to encode scene")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, errors.ErrCodeStorageConnection, "failed to write scene file %s", path)
	}
	return nil
}
