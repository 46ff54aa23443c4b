package application

import (
	"encoding/json"
	"fmt"
	"strings"

	routemapDomain "github.com/colectivo/service-routemap/internal/domain/routemap"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const optionsSchemaURL = "routemap://schema/options.json"

// optionsSchema describes the render payload: a list of options, each a list
// of segments, each a list of [latitude, longitude] stops. Values after the
// longitude (an altitude, say) are allowed and dropped. Coordinates are not
// range-checked here; a stop the routing API cannot place fails its batch.
const optionsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": ["array", "null"],
  "items": {
    "type": ["array", "null"],
    "items": {
      "type": "array",
      "items": {
        "type": "array",
        "minItems": 2,
        "prefixItems": [
          {"type": "number"},
          {"type": "number"}
        ]
      }
    }
  }
}`

var compiledOptionsSchema = jsonschema.MustCompileString(optionsSchemaURL, optionsSchema)

// PayloadError reports a render payload that is not valid JSON or does not
// have the shape of a route options list.
type PayloadError struct {
	Err error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("invalid route options payload: %v", e.Err)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// ParseOptions decodes a JSON-encoded list of route options. A JSON null
// decodes to no options.
func ParseOptions(payload string) ([]routemapDomain.Option, error) {
	var generic interface{}
	dec := json.NewDecoder(strings.NewReader(payload))
	if err := dec.Decode(&generic); err != nil {
		return nil, &PayloadError{Err: err}
	}
	if dec.More() {
		return nil, &PayloadError{Err: fmt.Errorf("unexpected data after the options list")}
	}

	if err := compiledOptionsSchema.Validate(generic); err != nil {
		return nil, &PayloadError{Err: err}
	}

	var options []routemapDomain.Option
	if err := json.Unmarshal([]byte(payload), &options); err != nil {
		return nil, &PayloadError{Err: err}
	}
	return options, nil
}
