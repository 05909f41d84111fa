// Package schemas embeds the JSON schemas of the persisted artifacts.
package schemas

import _ "embed"

//go:embed known.schema.json
var KnownSchemaJSON string

//go:embed learned.schema.json
var LearnedSchemaJSON string

//go:embed values.schema.json
var ValuesSchemaJSON string
