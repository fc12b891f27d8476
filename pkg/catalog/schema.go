// pkg/catalog/schema.go
package catalog

// Catalog is the on-disk seed format of the activity registry.
type Catalog struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

type Activity struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// Schema is the JSON schema every catalog file must satisfy.
const Schema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["version", "activities"],
	"properties": {
		"version": {"type": "string", "minLength": 1},
		"lastUpdated": {"type": "string"},
		"activities": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["name", "description", "schedule", "max_participants", "participants"],
				"additionalProperties": false,
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"description": {"type": "string"},
					"schedule": {"type": "string"},
					"max_participants": {"type": "integer", "minimum": 1},
					"participants": {
						"type": "array",
						"uniqueItems": true,
						"items": {"type": "string", "minLength": 1}
					}
				}
			}
		}
	}
}`
