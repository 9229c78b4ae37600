package tasks

const httpSchema = `{
	"type": "object",
	"required": ["url"],
	"properties": {
		"method":      {"type": "string", "enum": ["GET", "POST", "PUT", "PATCH", "DELETE", "HEAD"]},
		"url":         {"type": "string", "minLength": 1},
		"headers":     {"type": "object", "additionalProperties": {"type": "string"}},
		"timeout_sec": {"type": "number", "exclusiveMinimum": 0}
	}
}`

const delaySchema = `{
	"type": "object",
	"required": ["duration_sec"],
	"properties": {
		"duration_sec": {"type": "number", "exclusiveMinimum": 0, "maximum": 300}
	}
}`

const renderSchema = `{
	"type": "object",
	"required": ["template"],
	"properties": {
		"vars": {"type": "object"}
	}
}`
