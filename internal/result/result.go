// Package result defines the analysis result payloads produced by the
// analytics backend, one type per analysis kind, and validates them at the
// boundary before anything is rendered.
package result

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind discriminates analysis result payloads.
type Kind string

const (
	KindDescriptive        Kind = "descriptive"
	KindPredictive         Kind = "predictive"
	KindPrescriptive       Kind = "prescriptive"
	KindVisualization      Kind = "visualization"
	KindRegression         Kind = "regression"
	KindPLSSEM             Kind = "pls_sem"
	KindDEMATEL            Kind = "dematel"
	KindSEM                Kind = "sem"
	KindThreeHorizons      Kind = "three_horizons"
	KindCreativeDissonance Kind = "creative_dissonance"
	KindLivingSystem       Kind = "living_system"
	KindLadderOfInference  Kind = "ladder_of_inference"
	KindMissionVision      Kind = "mission_vision"
	KindObjectives         Kind = "objectives"
)

// Result is implemented by every analysis payload.
type Result interface {
	Kind() Kind
}

// ErrUnknownKind is returned by Decode for kinds without a schema.
var ErrUnknownKind = errors.New("unknown analysis kind")

// ErrMalformedVisualization marks a visualization entry whose fields have
// the wrong JSON types.
var ErrMalformedVisualization = errors.New("malformed visualization")

// MissingFieldsError reports required top-level fields that were absent or empty.
type MissingFieldsError struct {
	Kind   Kind
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s result is missing required fields: %s", e.Kind, strings.Join(e.Fields, ", "))
}

// InvalidError reports a payload that is not a JSON object or whose fields
// have the wrong shape.
type InvalidError struct {
	Kind Kind
	Err  error
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid %s result: %v", e.Kind, e.Err)
}

func (e *InvalidError) Unwrap() error { return e.Err }

// IsStructural reports whether err means the result cannot be rendered at all.
func IsStructural(err error) bool {
	var missing *MissingFieldsError
	var invalid *InvalidError
	return errors.As(err, &missing) || errors.As(err, &invalid) || errors.Is(err, ErrUnknownKind)
}

type schema struct {
	required []string
	newFn    func() Result
}

var schemas = map[Kind]schema{
	KindDescriptive: {
		required: []string{"summary", "numerical_summary", "categorical_summary", "visualizations", "business_insights"},
		newFn:    func() Result { return &Descriptive{} },
	},
	KindPredictive: {
		required: []string{"predictions", "data_summary", "model_performance", "insights"},
		newFn:    func() Result { return &Predictive{} },
	},
	KindPrescriptive: {
		required: []string{"prescriptions"},
		newFn:    func() Result { return &Prescriptive{} },
	},
	KindVisualization: {
		required: []string{"visualizations"},
		newFn:    func() Result { return &VisualizationSet{} },
	},
	KindRegression: {
		required: []string{"model_summary", "coefficients"},
		newFn:    func() Result { return &Regression{} },
	},
	KindPLSSEM: {
		required: []string{"path_coefficients", "reliability"},
		newFn:    func() Result { return &PLSSEM{} },
	},
	KindDEMATEL: {
		required: []string{"factors", "total_relation_matrix", "prominence", "relation"},
		newFn:    func() Result { return &DEMATEL{} },
	},
	KindSEM: {
		required: []string{"estimates_csv_content", "fit_indices_csv_content"},
		newFn:    func() Result { return &SEM{} },
	},
	KindThreeHorizons: {
		required: []string{"horizon_1", "horizon_2", "horizon_3"},
		newFn:    func() Result { return &ThreeHorizons{} },
	},
	KindCreativeDissonance: {
		required: []string{"vision", "current_reality", "tension_gaps"},
		newFn:    func() Result { return &CreativeDissonance{} },
	},
	KindLivingSystem: {
		required: []string{"components", "feedback_loops"},
		newFn:    func() Result { return &LivingSystem{} },
	},
	KindLadderOfInference: {
		required: []string{"rungs"},
		newFn:    func() Result { return &LadderOfInference{} },
	},
	KindMissionVision: {
		required: []string{"mission", "vision"},
		newFn:    func() Result { return &MissionVision{} },
	},
	KindObjectives: {
		required: []string{"local_model_result", "workflow_result"},
		newFn:    func() Result { return &Objectives{} },
	},
}

// Kinds returns every supported kind in a stable order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(schemas))
	for k := range schemas {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ParseKind accepts kinds written with dashes or underscores in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if _, ok := schemas[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// RequiredFields returns the top-level keys a kind cannot render without.
func RequiredFields(kind Kind) []string {
	s, ok := schemas[kind]
	if !ok {
		return nil
	}
	return append([]string(nil), s.required...)
}

// Decode validates data against kind's required fields and decodes it into
// the kind's typed result.
func Decode(kind Kind, data []byte) (Result, error) {
	s, ok := schemas[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &InvalidError{Kind: kind, Err: err}
	}
	if fields == nil {
		return nil, &InvalidError{Kind: kind, Err: errors.New("payload is null")}
	}

	var missing []string
	for _, key := range s.required {
		if !truthy(fields[key]) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Kind: kind, Fields: missing}
	}

	res := s.newFn()
	if err := json.Unmarshal(data, res); err != nil {
		return nil, &InvalidError{Kind: kind, Err: err}
	}
	return res, nil
}

// truthy treats absent, null, false, 0 and "" as missing. Empty arrays and
// objects count as present.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch string(raw) {
	case "null", "false", `""`:
		return false
	}
	if raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9') {
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil && f == 0 {
			return false
		}
	}
	return true
}
