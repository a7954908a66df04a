package valuation

import (
	"fmt"
	"math"
	"sort"

	apperrors "github.com/agbru/nightrate/internal/errors"
)

// Request is the immutable set of property attributes submitted for one
// attempt. Its contents are opaque to the controller beyond the shape check
// performed by Validate.
type Request struct {
	attrs map[string]any
}

// NewRequest copies attrs into a new Request.
func NewRequest(attrs map[string]any) Request {
	cp := make(map[string]any, len(attrs))
	for k, v := range attrs {
		cp[k] = v
	}
	return Request{attrs: cp}
}

// Attributes returns a copy of the request attributes.
func (r Request) Attributes() map[string]any {
	cp := make(map[string]any, len(r.attrs))
	for k, v := range r.attrs {
		cp[k] = v
	}
	return cp
}

// Get returns a single attribute.
func (r Request) Get(key string) (any, bool) {
	v, ok := r.attrs[key]
	return v, ok
}

// Len returns the number of attributes.
func (r Request) Len() int { return len(r.attrs) }

// Keys returns the attribute names in sorted order.
func (r Request) Keys() []string {
	keys := make([]string, 0, len(r.attrs))
	for k := range r.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks the request shape: at least one attribute, non-empty
// names, and scalar values (string, bool, integer, finite float).
// It does not judge whether the values make sense for a listing.
func (r Request) Validate() error {
	if len(r.attrs) == 0 {
		return apperrors.RequestError{Message: "no attributes"}
	}
	for _, k := range r.Keys() {
		if k == "" {
			return apperrors.RequestError{Message: "empty attribute name"}
		}
		if err := checkScalar(r.attrs[k]); err != nil {
			return apperrors.RequestError{Field: k, Message: err.Error()}
		}
	}
	return nil
}

func checkScalar(v any) error {
	switch x := v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return nil
	case float32:
		return checkFloat(float64(x))
	case float64:
		return checkFloat(x)
	case nil:
		return fmt.Errorf("value is missing")
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
}

func checkFloat(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("value %v is not finite", f)
	}
	return nil
}
