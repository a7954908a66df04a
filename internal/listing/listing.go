// Package listing describes the property attributes collected from the user
// and converts them into a valuation request. Unparsable numeric input falls
// back to the field default, the way the prediction service's form handler
// always has.
package listing

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/agbru/nightrate/internal/errors"
	"github.com/agbru/nightrate/internal/valuation"
)

// Kind is the value type of a listing field.
type Kind int

const (
	Text Kind = iota
	Int
	Float
	Bool
)

// FieldSpec describes one input field.
type FieldSpec struct {
	Name    string
	Label   string
	Kind    Kind
	Default string
}

// Fields lists every listing attribute in form order.
var Fields = []FieldSpec{
	{"property_type", "Property type", Text, "Apartment"},
	{"room_type", "Room type", Text, "Entire home/apt"},
	{"amenities", "Amenities", Text, ""},
	{"accommodates", "Accommodates", Int, "1"},
	{"bathrooms", "Bathrooms", Float, "1"},
	{"bedrooms", "Bedrooms", Int, "0"},
	{"beds", "Beds", Int, "0"},
	{"bed_type", "Bed type", Text, "Real Bed"},
	{"cancellation_policy", "Cancellation policy", Text, "flexible"},
	{"cleaning_fee", "Cleaning fee", Bool, "1"},
	{"city", "City", Text, "NYC"},
	{"neighbourhood", "Neighbourhood", Text, ""},
	{"latitude", "Latitude", Float, "0"},
	{"longitude", "Longitude", Float, "0"},
	{"host_has_profile_pic", "Host has profile picture", Bool, "1"},
	{"host_identity_verified", "Host identity verified", Bool, "1"},
	{"host_response_rate", "Host response rate (%)", Int, "100"},
	{"instant_bookable", "Instant bookable", Bool, "1"},
	{"number_of_reviews", "Number of reviews", Int, "0"},
	{"review_scores_rating", "Review score", Int, "0"},
}

// Listing is a complete, typed set of listing attributes.
type Listing struct {
	PropertyType         string  `json:"property_type"`
	RoomType             string  `json:"room_type"`
	Amenities            string  `json:"amenities"`
	Accommodates         int     `json:"accommodates"`
	Bathrooms            float64 `json:"bathrooms"`
	Bedrooms             int     `json:"bedrooms"`
	Beds                 int     `json:"beds"`
	BedType              string  `json:"bed_type"`
	CancellationPolicy   string  `json:"cancellation_policy"`
	CleaningFee          bool    `json:"cleaning_fee"`
	City                 string  `json:"city"`
	Neighbourhood        string  `json:"neighbourhood"`
	Latitude             float64 `json:"latitude"`
	Longitude            float64 `json:"longitude"`
	HostHasProfilePic    bool    `json:"host_has_profile_pic"`
	HostIdentityVerified bool    `json:"host_identity_verified"`
	HostResponseRate     int     `json:"host_response_rate"`
	InstantBookable      bool    `json:"instant_bookable"`
	NumberOfReviews      int     `json:"number_of_reviews"`
	ReviewScoresRating   int     `json:"review_scores_rating"`
}

// Default returns a listing populated with every field default.
func Default() Listing {
	var l Listing
	for _, f := range Fields {
		// Defaults are well-formed by construction.
		_ = l.Set(f.Name, f.Default)
	}
	return l
}

// FromForm starts from Default and applies every value in form.
// Unknown field names are reported; bad numbers keep the default.
func FromForm(form map[string]string) (Listing, error) {
	l := Default()
	names := make([]string, 0, len(form))
	for k := range form {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := l.Set(name, form[name]); err != nil {
			return Listing{}, err
		}
	}
	return l, nil
}

// ParsePairs turns "name=value" strings into a form map.
func ParsePairs(pairs []string) (map[string]string, error) {
	form := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, apperrors.ValidationError{Field: p, Message: "expected name=value"}
		}
		form[name] = strings.TrimSpace(value)
	}
	return form, nil
}

// Decode reads a JSON listing. Absent fields keep their defaults.
func Decode(r io.Reader) (Listing, error) {
	l := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&l); err != nil {
		return Listing{}, apperrors.WrapError(err, "decode listing")
	}
	return l, nil
}

// Spec returns the field description for name.
func Spec(name string) (FieldSpec, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Set assigns a raw string value to the named field.
func (l *Listing) Set(name, raw string) error {
	spec, ok := Spec(name)
	if !ok {
		return apperrors.ValidationError{Field: name, Message: "unknown listing field"}
	}
	raw = strings.TrimSpace(raw)
	switch spec.Kind {
	case Int:
		n := parseInt(raw, spec.Default)
		switch name {
		case "accommodates":
			l.Accommodates = n
		case "bedrooms":
			l.Bedrooms = n
		case "beds":
			l.Beds = n
		case "host_response_rate":
			l.HostResponseRate = n
		case "number_of_reviews":
			l.NumberOfReviews = n
		case "review_scores_rating":
			l.ReviewScoresRating = n
		}
	case Float:
		f := parseFloat(raw, spec.Default)
		switch name {
		case "bathrooms":
			l.Bathrooms = f
		case "latitude":
			l.Latitude = f
		case "longitude":
			l.Longitude = f
		}
	case Bool:
		b := parseBool(raw, spec.Default)
		switch name {
		case "cleaning_fee":
			l.CleaningFee = b
		case "host_has_profile_pic":
			l.HostHasProfilePic = b
		case "host_identity_verified":
			l.HostIdentityVerified = b
		case "instant_bookable":
			l.InstantBookable = b
		}
	default:
		// An explicitly submitted empty string is kept; only absent
		// fields take the default.
		switch name {
		case "property_type":
			l.PropertyType = raw
		case "room_type":
			l.RoomType = raw
		case "amenities":
			l.Amenities = raw
		case "bed_type":
			l.BedType = raw
		case "cancellation_policy":
			l.CancellationPolicy = raw
		case "city":
			l.City = raw
		case "neighbourhood":
			l.Neighbourhood = raw
		}
	}
	return nil
}

func parseInt(raw, def string) int {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	n, _ := strconv.Atoi(def)
	return n
}

// parseFloat treats NaN and infinities like any other unparsable input.
func parseFloat(raw, def string) float64 {
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	f, _ := strconv.ParseFloat(def, 64)
	return f
}

// parseBool accepts the form convention "1"/"0" as well as true/false/yes/no.
func parseBool(raw, def string) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def == "1"
}

// Validate rejects values no listing can have.
func (l Listing) Validate() error {
	counts := []struct {
		name  string
		value int
	}{
		{"accommodates", l.Accommodates},
		{"bedrooms", l.Bedrooms},
		{"beds", l.Beds},
		{"number_of_reviews", l.NumberOfReviews},
		{"review_scores_rating", l.ReviewScoresRating},
	}
	for _, c := range counts {
		if c.value < 0 {
			return apperrors.ValidationError{Field: c.name, Message: "must be non-negative"}
		}
	}
	if l.Accommodates < 1 {
		return apperrors.ValidationError{Field: "accommodates", Message: "must be at least 1"}
	}
	for _, f := range []struct {
		name  string
		value float64
	}{{"bathrooms", l.Bathrooms}, {"latitude", l.Latitude}, {"longitude", l.Longitude}} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return apperrors.ValidationError{Field: f.name, Message: "must be a finite number"}
		}
	}
	if l.Bathrooms < 0 {
		return apperrors.ValidationError{Field: "bathrooms", Message: "must be non-negative"}
	}
	if l.HostResponseRate < 0 || l.HostResponseRate > 100 {
		return apperrors.ValidationError{Field: "host_response_rate", Message: "must be between 0 and 100"}
	}
	if l.ReviewScoresRating > 100 {
		return apperrors.ValidationError{Field: "review_scores_rating", Message: "must be at most 100"}
	}
	if l.Latitude < -90 || l.Latitude > 90 {
		return apperrors.ValidationError{Field: "latitude", Message: "out of range"}
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return apperrors.ValidationError{Field: "longitude", Message: "out of range"}
	}
	return nil
}

// Value returns the field as the string the form would show.
func (l Listing) Value(name string) string {
	switch name {
	case "property_type":
		return l.PropertyType
	case "room_type":
		return l.RoomType
	case "amenities":
		return l.Amenities
	case "accommodates":
		return strconv.Itoa(l.Accommodates)
	case "bathrooms":
		return strconv.FormatFloat(l.Bathrooms, 'f', -1, 64)
	case "bedrooms":
		return strconv.Itoa(l.Bedrooms)
	case "beds":
		return strconv.Itoa(l.Beds)
	case "bed_type":
		return l.BedType
	case "cancellation_policy":
		return l.CancellationPolicy
	case "cleaning_fee":
		return formBool(l.CleaningFee)
	case "city":
		return l.City
	case "neighbourhood":
		return l.Neighbourhood
	case "latitude":
		return strconv.FormatFloat(l.Latitude, 'f', -1, 64)
	case "longitude":
		return strconv.FormatFloat(l.Longitude, 'f', -1, 64)
	case "host_has_profile_pic":
		return formBool(l.HostHasProfilePic)
	case "host_identity_verified":
		return formBool(l.HostIdentityVerified)
	case "host_response_rate":
		return strconv.Itoa(l.HostResponseRate)
	case "instant_bookable":
		return formBool(l.InstantBookable)
	case "number_of_reviews":
		return strconv.Itoa(l.NumberOfReviews)
	case "review_scores_rating":
		return strconv.Itoa(l.ReviewScoresRating)
	}
	return ""
}

func formBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Request converts the listing into the attribute set sent for prediction.
// host_response_rate travels as a percentage string, e.g. "95%".
func (l Listing) Request() valuation.Request {
	return valuation.NewRequest(map[string]any{
		"property_type":          l.PropertyType,
		"room_type":              l.RoomType,
		"amenities":              l.Amenities,
		"accommodates":           l.Accommodates,
		"bathrooms":              l.Bathrooms,
		"bedrooms":               l.Bedrooms,
		"beds":                   l.Beds,
		"bed_type":               l.BedType,
		"cancellation_policy":    l.CancellationPolicy,
		"cleaning_fee":           l.CleaningFee,
		"city":                   l.City,
		"neighbourhood":          l.Neighbourhood,
		"latitude":               l.Latitude,
		"longitude":              l.Longitude,
		"host_has_profile_pic":   l.HostHasProfilePic,
		"host_identity_verified": l.HostIdentityVerified,
		"host_response_rate":     fmt.Sprintf("%d%%", l.HostResponseRate),
		"instant_bookable":       l.InstantBookable,
		"number_of_reviews":      l.NumberOfReviews,
		"review_scores_rating":   l.ReviewScoresRating,
	})
}
