package survey

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/alexshd/anchorbench"
)

// Survey answer ranges.
const (
	MinAnchor   = 1
	MaxAnchor   = 100
	MinEstimate = 0
	MaxEstimate = 1000
)

// Response is one respondent's pair of answers.
//
// RespondentID is optional here so offline exports can be analyzed; the
// HTTP submission path requires it. ReceivedAt is stamped by the store.
type Response struct {
	Q1           int       `json:"q1" validate:"gte=1,lte=100"`
	Q2           int       `json:"q2" validate:"gte=0,lte=1000"`
	RespondentID string    `json:"respondentId,omitempty" validate:"omitempty,max=128"`
	ReceivedAt   time.Time `json:"receivedAt,omitzero"`
}

// ValidationError reports the first invalid field of a response.
type ValidationError struct {
	Index int    // Position in the validated batch
	Field string // JSON field name
	Value any
	Rule  string // Failed rule, e.g. "gte=1"
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("response %d: %s = %v violates %s", e.Index, e.Field, e.Value, e.Rule)
}

// validate is safe for concurrent use and caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every response against the survey ranges.
//
// Returns a *ValidationError for the first offending response.
func Validate(rs ...Response) error {
	for i, r := range rs {
		err := validate.Struct(r)
		if err == nil {
			continue
		}

		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			rule := fe.Tag()
			if fe.Param() != "" {
				rule += "=" + fe.Param()
			}
			return &ValidationError{
				Index: i,
				Field: fe.Field(),
				Value: fe.Value(),
				Rule:  rule,
			}
		}
		return fmt.Errorf("response %d: %w", i, err)
	}
	return nil
}

// Observations converts responses into engine input, preserving order.
func Observations(rs []Response) []anchorbench.Observation {
	obs := make([]anchorbench.Observation, len(rs))
	for i, r := range rs {
		obs[i] = anchorbench.Observation{X: float64(r.Q1), Y: float64(r.Q2)}
	}
	return obs
}
