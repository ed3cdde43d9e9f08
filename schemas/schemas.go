// Package schemas embeds the JSON Schemas for the payloads exchanged with the
// spreadsheet web app.
package schemas

import _ "embed"

// Rows is the schema for the data API response.
//
//go:embed rows.schema.json
var Rows string

// GenerationResponse is the schema for the remote generation response.
//
//go:embed generation_response.schema.json
var GenerationResponse string
