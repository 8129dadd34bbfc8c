// internal/workers/mock/generate-response/models.go
package generateresponse

import "mock-response-service/internal/keys"

// Input carries the caller's selections: service id -> flavor id. It is kept
// untyped so non-object bodies reach validation instead of failing decode.
type Input struct {
	Selections interface{} `json:"selections"`
}

type Output struct {
	ID         string            `json:"id"`
	Responses  map[string]string `json:"responses"`
	UniqueKeys keys.KeySet       `json:"uniqueKeys"`
	Timestamp  string            `json:"timestamp"`
}

// timestampLayout matches JavaScript's Date.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z"
