package pipeline

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"medpredict/ml"
)

var errNotNumeric = errors.New("value is not numeric")

// lookup finds the field under its canonical name first, then its aliases.
// A JSON null counts as absent.
func lookup(payload map[string]any, field ml.Field) (any, bool) {
	for _, key := range field.Keys() {
		if v, ok := payload[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// toFloat accepts JSON numbers, numeric strings and booleans. The result is
// always finite.
func toFloat(v any) (float64, error) {
	var (
		f   float64
		err error
	)
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		f, err = strconv.ParseFloat(string(x), 64)
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	case bool:
		if x {
			f = 1
		}
	default:
		return 0, errNotNumeric
	}
	if err != nil {
		return 0, errNotNumeric
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotNumeric
	}
	return f, nil
}

// BuildVector orders and coerces payload values according to fields.
func BuildVector(fields []ml.Field, payload map[string]any) ([]float64, error) {
	vector := make([]float64, 0, len(fields))
	for _, field := range fields {
		raw, ok := lookup(payload, field)
		if !ok {
			return nil, &MissingFeatureError{Field: field.Name}
		}
		value, err := toFloat(raw)
		if err != nil {
			return nil, &InvalidFeatureValueError{Field: field.Name, Value: raw}
		}
		vector = append(vector, value)
	}
	return vector, nil
}

// DecodePayload reads one JSON object from r. Numbers are kept as json.Number.
// Any other shape, or trailing data, is a MalformedRequestBodyError.
func DecodePayload(r io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &MalformedRequestBodyError{Err: err}
	}
	payload, ok := v.(map[string]any)
	if !ok {
		return nil, &MalformedRequestBodyError{Err: errors.New("expected a JSON object")}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &MalformedRequestBodyError{Err: errors.New("unexpected data after JSON object")}
	}
	return payload, nil
}
