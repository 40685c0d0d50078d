package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/benmeehan/iot-dashboard/internal/constants"
	"github.com/benmeehan/iot-dashboard/internal/models"
)

// ErrMalformedPayload indicates the raw payload could not be parsed as a
// JSON object at all. Payloads that parse but carry wrong field types do
// not error; their fields default instead.
var ErrMalformedPayload = errors.New("payload is not a JSON object")

// Defaults supplies the annotation strings used when a payload omits
// alert or activity. The two producers use different pairs.
type Defaults struct {
	Alert    string
	Activity string
}

var (
	// DeviceDefaults annotate samples arriving over the device link.
	DeviceDefaults = Defaults{Alert: constants.AlertNone, Activity: constants.ActivityUnknown}
	// PhoneDefaults annotate samples built from the host's own location
	// provider. The pair differs from DeviceDefaults on purpose.
	PhoneDefaults = Defaults{Alert: constants.AlertNormal, Activity: constants.ActivityStationary}
)

// Decode parses one telemetry notification into a sample.
//
// The policy is permissive: every numeric field accepts a JSON number or a
// numeric string and silently falls back to 0.0 for anything else, so a
// structurally valid object with all-wrong types still yields a fully
// zeroed sample. Only input that is not a JSON object fails.
func Decode(raw []byte, defaults Defaults) (models.TelemetrySample, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.TelemetrySample{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if fields == nil {
		return models.TelemetrySample{}, fmt.Errorf("%w: null payload", ErrMalformedPayload)
	}

	sample := models.TelemetrySample{
		Latitude:  numberField(fields, "lat", "latitude"),
		Longitude: numberField(fields, "lon", "longitude"),
		Speed:     numberField(fields, "speed"),
		Roll:      numberField(fields, "roll"),
		Pitch:     numberField(fields, "pitch"),
		Yaw:       numberField(fields, "yaw"),
		AccelX:    numberField(fields, "ax"),
		AccelY:    numberField(fields, "ay"),
		AccelZ:    numberField(fields, "az"),
		GyroX:     numberField(fields, "gx"),
		GyroY:     numberField(fields, "gy"),
		GyroZ:     numberField(fields, "gz"),
		Alert:     stringField(fields, "alert", defaults.Alert),
		Activity:  stringField(fields, "activity", defaults.Activity),
		Source:    sourceField(fields),
	}
	return sample, nil
}

// numberField returns the first present name coerced to float64. A present
// but unusable value counts as 0.0 and does not fall through to aliases.
func numberField(fields map[string]interface{}, names ...string) float64 {
	for _, name := range names {
		value, ok := fields[name]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case float64:
			return v
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f
			}
		}
		return 0
	}
	return 0
}

func stringField(fields map[string]interface{}, name, fallback string) string {
	if value, ok := fields[name]; ok {
		if s, ok := value.(string); ok {
			return s
		}
	}
	return fallback
}

// sourceField maps the optional "source" key onto provenance. Anything
// other than an explicit "phone" counts as the device.
func sourceField(fields map[string]interface{}) models.Source {
	if value, ok := fields["source"]; ok {
		if s, ok := value.(string); ok && strings.EqualFold(s, "phone") {
			return models.SourcePhone
		}
	}
	return models.SourceDevice
}
