package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NumFeatures is the length of every FeatureVector.
const NumFeatures = 10

// UnknownCategory is the code assigned to category strings missing from the
// encoding tables.
const UnknownCategory = -1

// Form field names, shared by the HTTP adapter and the encoder.
const (
	FieldRainfall          = "rainfall"
	FieldTemperature       = "temperature"
	FieldHumidity          = "humidity"
	FieldRiverDischarge    = "river_discharge"
	FieldWaterLevel        = "water_level"
	FieldElevation         = "elevation"
	FieldLandCover         = "land_cover"
	FieldSoilType          = "soil_type"
	FieldPopulationDensity = "population_density"
	FieldHistoricalFloods  = "historical_floods"
)

// FeatureNames lists the vector columns in training order.
var FeatureNames = [NumFeatures]string{
	FieldRainfall,
	FieldTemperature,
	FieldHumidity,
	FieldRiverDischarge,
	FieldWaterLevel,
	FieldElevation,
	FieldLandCover,
	FieldSoilType,
	FieldPopulationDensity,
	FieldHistoricalFloods,
}

// FeatureVector is an encoded reading in FeatureNames order.
type FeatureVector [NumFeatures]float64

// Slice returns a copy of the vector as a slice, for adapters that need one.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, NumFeatures)
	copy(out, v[:])
	return out
}

// LandCoverCodes maps land cover names to their trained codes.
var LandCoverCodes = map[string]int{
	"Forest":      0,
	"Urban":       1,
	"Agriculture": 2,
	"Water":       3,
	"Barren":      4,
}

// SoilTypeCodes maps soil type names to their trained codes.
var SoilTypeCodes = map[string]int{
	"Clay":   0,
	"Sandy":  1,
	"Loamy":  2,
	"Silty":  3,
	"Peaty":  4,
	"Chalky": 5,
}

// EncodeCategory looks a category up in table, returning UnknownCategory when absent.
func EncodeCategory(table map[string]int, value string) int {
	if code, ok := table[value]; ok {
		return code
	}
	return UnknownCategory
}

// Reading is a typed, parsed flood-risk form submission.
type Reading struct {
	Rainfall          float64 `json:"rainfall"`
	Temperature       float64 `json:"temperature"`
	Humidity          float64 `json:"humidity"`
	RiverDischarge    float64 `json:"river_discharge"`
	WaterLevel        float64 `json:"water_level"`
	Elevation         float64 `json:"elevation"`
	LandCover         string  `json:"land_cover"`
	SoilType          string  `json:"soil_type"`
	PopulationDensity float64 `json:"population_density"`
	HistoricalFloods  int     `json:"historical_floods"`
}

// UnknownCategories returns the names of categorical fields whose values
// are not in the encoding tables.
func (r Reading) UnknownCategories() []string {
	var unknown []string
	if EncodeCategory(LandCoverCodes, r.LandCover) == UnknownCategory {
		unknown = append(unknown, FieldLandCover)
	}
	if EncodeCategory(SoilTypeCodes, r.SoilType) == UnknownCategory {
		unknown = append(unknown, FieldSoilType)
	}
	return unknown
}

// Encode builds the feature vector for a reading. Unknown categories encode
// as UnknownCategory rather than failing.
func Encode(r Reading) FeatureVector {
	return FeatureVector{
		r.Rainfall,
		r.Temperature,
		r.Humidity,
		r.RiverDischarge,
		r.WaterLevel,
		r.Elevation,
		float64(EncodeCategory(LandCoverCodes, r.LandCover)),
		float64(EncodeCategory(SoilTypeCodes, r.SoilType)),
		r.PopulationDensity,
		float64(r.HistoricalFloods),
	}
}

// FieldGetter returns a raw field value and whether it was present.
// url.Values satisfies it through FormFields.
type FieldGetter interface {
	Field(name string) (string, bool)
}

// FormFields adapts a multi-valued form map to FieldGetter, using the first value.
type FormFields map[string][]string

// Field implements FieldGetter.
func (f FormFields) Field(name string) (string, bool) {
	vs, ok := f[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

var errNotFinite = errors.New("value must be finite")

// FieldError reports a missing or malformed form field.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("missing field %q", e.Field)
	}
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// UnknownCategoryError reports categorical values outside the encoding tables.
type UnknownCategoryError struct {
	Fields []string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category for %s", strings.Join(e.Fields, ", "))
}

// ParseReading reads and parses all reading fields. Numeric fields must parse
// as floats (historical_floods as an integer); there are no defaults.
func ParseReading(fields FieldGetter) (Reading, error) {
	p := fieldParser{fields: fields}

	r := Reading{
		Rainfall:          p.number(FieldRainfall),
		Temperature:       p.number(FieldTemperature),
		Humidity:          p.number(FieldHumidity),
		RiverDischarge:    p.number(FieldRiverDischarge),
		WaterLevel:        p.number(FieldWaterLevel),
		Elevation:         p.number(FieldElevation),
		LandCover:         p.text(FieldLandCover),
		SoilType:          p.text(FieldSoilType),
		PopulationDensity: p.number(FieldPopulationDensity),
		HistoricalFloods:  p.count(FieldHistoricalFloods),
	}
	if p.err != nil {
		return Reading{}, p.err
	}
	return r, nil
}

// fieldParser keeps the first error so ParseReading reads as a flat list.
type fieldParser struct {
	fields FieldGetter
	err    error
}

func (p *fieldParser) raw(name string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v, ok := p.fields.Field(name)
	if !ok {
		p.err = &FieldError{Field: name}
		return "", false
	}
	return v, true
}

func (p *fieldParser) text(name string) string {
	v, _ := p.raw(name)
	return strings.TrimSpace(v)
}

func (p *fieldParser) number(name string) float64 {
	v, ok := p.raw(name)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		p.err = &FieldError{Field: name, Value: v, Err: unwrapNumError(err)}
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		p.err = &FieldError{Field: name, Value: v, Err: errNotFinite}
		return 0
	}
	return f
}

func (p *fieldParser) count(name string) int {
	v, ok := p.raw(name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		p.err = &FieldError{Field: name, Value: v, Err: unwrapNumError(err)}
		return 0
	}
	return n
}

// unwrapNumError drops strconv's function/input prefix, which FieldError already carries.
func unwrapNumError(err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err
	}
	return err
}
