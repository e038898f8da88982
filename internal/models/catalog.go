// Package models parses the model and mode catalogs an agent advertises on
// session creation and chooses the defaults a new session starts with.
package models

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Model is one model the agent can run a session on.
type Model struct {
	ID          string `json:"modelId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Mode is one operating mode the agent supports.
type Mode struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Catalog is the model and mode state reported by session/new.
type Catalog struct {
	Models         []Model
	CurrentModelID string
	Modes          []Mode
	CurrentModeID  string
}

// Session is the decoded result of session/new.
type Session struct {
	ID string
	Catalog
}

// object is a JSON object whose keys are looked up in camelCase first and
// snake_case second.
type object map[string]json.RawMessage

// field returns the value stored under camel, falling back to snake.
// A JSON null counts as absent.
func (o object) field(camel, snake string) (json.RawMessage, bool) {
	for _, key := range []string{camel, snake} {
		if v, ok := o[key]; ok && string(v) != "null" {
			return v, true
		}
	}

	return nil, false
}

// str returns the string stored under camel or snake. Non-string values
// are treated as absent.
func (o object) str(camel, snake string) string {
	raw, ok := o.field(camel, snake)
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}

	return s
}

func (o object) list(camel, snake string) ([]object, error) {
	raw, ok := o.field(camel, snake)
	if !ok {
		return nil, nil
	}

	var items []object
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", camel, err)
	}

	return items, nil
}

func (o object) child(key string) (object, error) {
	raw, ok := o.field(key, key)
	if !ok {
		return nil, nil
	}

	var child object
	if err := json.Unmarshal(raw, &child); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}

	return child, nil
}

// ParseSession decodes a session/new result.
//
// Both camelCase and snake_case keys are accepted; when both are present
// the camelCase value wins. Missing catalogs yield empty lists.
func ParseSession(result json.RawMessage) (*Session, error) {
	var root object
	if err := json.Unmarshal(result, &root); err != nil {
		return nil, fmt.Errorf("decode session/new result: %w", err)
	}

	sess := &Session{ID: root.str("sessionId", "session_id")}
	if sess.ID == "" {
		return nil, fmt.Errorf("session/new result has no sessionId")
	}

	catalog, err := ParseCatalog(root)
	if err != nil {
		return nil, err
	}

	sess.Catalog = *catalog

	return sess, nil
}

// ParseCatalog reads the "models" and "modes" blocks of root.
func ParseCatalog(root map[string]json.RawMessage) (*Catalog, error) {
	obj := object(root)
	catalog := &Catalog{}

	modelsBlock, err := obj.child("models")
	if err != nil {
		return nil, err
	}

	if modelsBlock != nil {
		items, err := modelsBlock.list("availableModels", "available_models")
		if err != nil {
			return nil, err
		}

		for _, item := range items {
			m := Model{
				ID:          item.str("modelId", "model_id"),
				Name:        item.str("name", "name"),
				Description: item.str("description", "description"),
			}
			if m.ID == "" {
				continue
			}

			if m.Name == "" {
				m.Name = m.ID
			}

			catalog.Models = append(catalog.Models, m)
		}

		catalog.CurrentModelID = modelsBlock.str("currentModelId", "current_model_id")
	}

	modesBlock, err := obj.child("modes")
	if err != nil {
		return nil, err
	}

	if modesBlock != nil {
		items, err := modesBlock.list("availableModes", "available_modes")
		if err != nil {
			return nil, err
		}

		for _, item := range items {
			m := Mode{
				ID:          item.str("id", "id"),
				Name:        item.str("name", "name"),
				Description: item.str("description", "description"),
			}
			if m.ID == "" {
				continue
			}

			if m.Name == "" {
				m.Name = m.ID
			}

			catalog.Modes = append(catalog.Modes, m)
		}

		catalog.CurrentModeID = modesBlock.str("currentModeId", "current_mode_id")
	}

	return catalog, nil
}

// FindModel looks up a model by id.
func FindModel(list []Model, id string) (Model, bool) {
	i := slices.IndexFunc(list, func(m Model) bool { return m.ID == id })
	if i < 0 {
		return Model{}, false
	}

	return list[i], true
}

// FindMode looks up a mode by id.
func FindMode(list []Mode, id string) (Mode, bool) {
	i := slices.IndexFunc(list, func(m Mode) bool { return m.ID == id })
	if i < 0 {
		return Mode{}, false
	}

	return list[i], true
}

// DefaultModel picks the model a new session starts with: preferred if
// offered, else the agent's current model if offered, else the first.
// It reports false when the catalog is empty.
func (c *Catalog) DefaultModel(preferred string) (Model, bool) {
	return choose(c.Models, preferred, c.CurrentModelID, func(m Model) string { return m.ID })
}

// DefaultMode is DefaultModel for modes.
func (c *Catalog) DefaultMode(preferred string) (Mode, bool) {
	return choose(c.Modes, preferred, c.CurrentModeID, func(m Mode) string { return m.ID })
}

func choose[T any](list []T, preferred, current string, id func(T) string) (T, bool) {
	var zero T

	if len(list) == 0 {
		return zero, false
	}

	for _, want := range []string{preferred, current} {
		if want == "" {
			continue
		}

		if i := slices.IndexFunc(list, func(v T) bool { return id(v) == want }); i >= 0 {
			return list[i], true
		}
	}

	return list[0], true
}
