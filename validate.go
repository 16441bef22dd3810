package shaderscene

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// rawPayload is the external, snake_case shape of a scene description.
// Numeric sequences stay untyped so that each element can be checked
// individually.
type rawPayload struct {
	VertexShader       *string        `mapstructure:"vertex_shader"`
	FragmentShader     *string        `mapstructure:"fragment_shader"`
	VertexEntryPoint   string         `mapstructure:"vertex_entry_point"`
	FragmentEntryPoint string         `mapstructure:"fragment_entry_point"`
	VertexData         *rawVertexData `mapstructure:"vertex_data"`
	Uniforms           *rawUniforms   `mapstructure:"uniforms"`
	Camera             *rawCamera     `mapstructure:"camera"`
	Scene              *rawScene      `mapstructure:"scene"`
	Mesh               *rawMesh       `mapstructure:"mesh"`
}

type rawVertexData struct {
	Positions      []any `mapstructure:"positions"`
	Indices        []any `mapstructure:"indices"`
	Dimensionality any   `mapstructure:"dimensionality"`
}

type rawUniforms struct {
	Resolution []any `mapstructure:"u_resolution"`
	Time       any   `mapstructure:"u_time"`
	Color      []any `mapstructure:"u_color"`
}

type rawCamera struct {
	Position []any `mapstructure:"position"`
	Target   []any `mapstructure:"target"`
}

type rawScene struct {
	BackgroundColor []any `mapstructure:"background_color"`
}

type rawMesh struct {
	Scale []any `mapstructure:"scale"`
}

// DecodePayload parses JSON text into a payload map. A top-level
// "response" object, as sent by the generator service, is unwrapped.
//
// Numbers are kept as json.Number so that values overflowing float64 are
// reported as non-finite rather than as a syntax error.
func DecodePayload(data []byte) (map[string]any, error) {
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil, malformed("", "payload is not a JSON object: %v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, malformed("", "payload has trailing data after the JSON object")
	}
	if m == nil {
		return nil, malformed("", "payload is null")
	}
	return unwrapResponse(m)
}

func unwrapResponse(m map[string]any) (map[string]any, error) {
	r, ok := m["response"]
	if !ok {
		return m, nil
	}
	inner, ok := r.(map[string]any)
	if !ok {
		return nil, malformed("response", "expected an object, got %T", r)
	}
	return inner, nil
}

// Validate checks an untrusted payload and converts it to a Description.
// The payload may be a map[string]any (decoded JSON), JSON text as []byte,
// json.RawMessage or string, or a *Description. A *Description is checked
// like any other payload and a copy is returned.
//
// Validate is pure: it never touches the GPU. Rejections are returned as
// *ValidationError matching ErrMalformedPayload, ErrInvalidNumericData or
// ErrIndexOutOfRange.
func Validate(payload any) (*Description, error) {
	var m map[string]any
	switch p := payload.(type) {
	case nil:
		return nil, malformed("", "payload is empty")
	case *Description:
		if p == nil {
			return nil, malformed("", "payload is empty")
		}
		return validateDescription(p)
	case map[string]any:
		var err error
		if m, err = unwrapResponse(p); err != nil {
			return nil, err
		}
	case []byte:
		return validateJSON(p)
	case json.RawMessage:
		return validateJSON(p)
	case string:
		return validateJSON([]byte(p))
	default:
		return nil, malformed("", "unsupported payload type %T", payload)
	}
	return validateMap(m)
}

func validateJSON(data []byte) (*Description, error) {
	m, err := DecodePayload(data)
	if err != nil {
		return nil, err
	}
	return validateMap(m)
}

func validateMap(m map[string]any) (*Description, error) {
	var raw rawPayload
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &raw,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("create payload decoder: %w", err)
	}
	if err := dec.Decode(m); err != nil {
		return nil, malformed("", "%v", err)
	}

	if raw.VertexShader == nil || *raw.VertexShader == "" {
		return nil, malformed("vertex_shader", "required")
	}
	if raw.FragmentShader == nil || *raw.FragmentShader == "" {
		return nil, malformed("fragment_shader", "required")
	}
	if raw.VertexData == nil || len(raw.VertexData.Positions) == 0 {
		return nil, malformed("vertex_data.positions", "required")
	}

	v := &validator{}
	positions := v.numbers("vertex_data.positions", raw.VertexData.Positions)
	indices := v.numbers("vertex_data.indices", raw.VertexData.Indices)
	dim := v.optionalNumber("vertex_data.dimensionality", raw.VertexData.Dimensionality)

	var u rawUniforms
	if raw.Uniforms != nil {
		u = *raw.Uniforms
	}
	resolution := v.numbers("uniforms.u_resolution", u.Resolution)
	timeVal := v.optionalNumber("uniforms.u_time", u.Time)
	color := v.numbers("uniforms.u_color", u.Color)

	var cam rawCamera
	if raw.Camera != nil {
		cam = *raw.Camera
	}
	camPos := v.numbers("camera.position", cam.Position)
	camTarget := v.numbers("camera.target", cam.Target)

	var bg []float64
	if raw.Scene != nil {
		bg = v.numbers("scene.background_color", raw.Scene.BackgroundColor)
	}
	var scale []float64
	if raw.Mesh != nil {
		scale = v.numbers("mesh.scale", raw.Mesh.Scale)
	}

	// Type errors first, then non-finite values, then shape.
	if v.malformed != nil {
		return nil, v.malformed
	}
	if v.nonFinite != nil {
		return nil, v.nonFinite
	}

	d := &Description{
		VertexShader:       *raw.VertexShader,
		FragmentShader:     *raw.FragmentShader,
		VertexEntryPoint:   raw.VertexEntryPoint,
		FragmentEntryPoint: raw.FragmentEntryPoint,
		Uniforms:           Uniforms{Color: [4]float64{1, 1, 1, 1}},
		Camera:             Camera{Position: [3]float64{0, 0, 2}},
		Background:         Background{Color: [4]float64{0, 0, 0, 1}},
		Mesh:               Mesh{Scale: [3]float64{1, 1, 1}},
	}
	if d.VertexEntryPoint == "" {
		d.VertexEntryPoint = DefaultVertexEntryPoint
	}
	if d.FragmentEntryPoint == "" {
		d.FragmentEntryPoint = DefaultFragmentEntryPoint
	}

	d.VertexData.Dimensionality = 2
	if dim != nil {
		if *dim != 2 && *dim != 3 {
			return nil, malformed("vertex_data.dimensionality", "must be 2 or 3, got %v", *dim)
		}
		d.VertexData.Dimensionality = int(*dim)
	}
	if len(positions)%d.VertexData.Dimensionality != 0 {
		return nil, malformed("vertex_data.positions",
			"length %d is not a multiple of dimensionality %d", len(positions), d.VertexData.Dimensionality)
	}
	d.VertexData.Positions = positions

	if err := tuple("uniforms.u_resolution", resolution, d.Uniforms.Resolution[:]); err != nil {
		return nil, err
	}
	if err := tuple("uniforms.u_color", color, d.Uniforms.Color[:]); err != nil {
		return nil, err
	}
	if timeVal != nil {
		d.Uniforms.Time = *timeVal
	}
	if err := tuple("camera.position", camPos, d.Camera.Position[:]); err != nil {
		return nil, err
	}
	if err := tuple("camera.target", camTarget, d.Camera.Target[:]); err != nil {
		return nil, err
	}
	if err := tuple("scene.background_color", bg, d.Background.Color[:]); err != nil {
		return nil, err
	}
	if err := tuple("mesh.scale", scale, d.Mesh.Scale[:]); err != nil {
		return nil, err
	}

	idx, err := checkIndices(indices, d.VertexData.VertexCount())
	if err != nil {
		return nil, err
	}
	d.VertexData.Indices = idx
	return d, nil
}

// validateDescription applies the payload checks to a typed description.
// Empty entry points get their defaults; every other field must already
// be complete.
func validateDescription(p *Description) (*Description, error) {
	if p.VertexShader == "" {
		return nil, malformed("vertex_shader", "required")
	}
	if p.FragmentShader == "" {
		return nil, malformed("fragment_shader", "required")
	}
	vd := p.VertexData
	if len(vd.Positions) == 0 {
		return nil, malformed("vertex_data.positions", "required")
	}

	v := &validator{}
	v.finite("vertex_data.positions", vd.Positions)
	v.finite("uniforms.u_resolution", p.Uniforms.Resolution[:])
	v.finite("uniforms.u_time", []float64{p.Uniforms.Time})
	v.finite("uniforms.u_color", p.Uniforms.Color[:])
	v.finite("camera.position", p.Camera.Position[:])
	v.finite("camera.target", p.Camera.Target[:])
	v.finite("scene.background_color", p.Background.Color[:])
	v.finite("mesh.scale", p.Mesh.Scale[:])
	if v.nonFinite != nil {
		return nil, v.nonFinite
	}

	if vd.Dimensionality != 2 && vd.Dimensionality != 3 {
		return nil, malformed("vertex_data.dimensionality", "must be 2 or 3, got %d", vd.Dimensionality)
	}
	if len(vd.Positions)%vd.Dimensionality != 0 {
		return nil, malformed("vertex_data.positions",
			"length %d is not a multiple of dimensionality %d", len(vd.Positions), vd.Dimensionality)
	}
	count := vd.VertexCount()
	for i, idx := range vd.Indices {
		if int(idx) >= count {
			return nil, &ValidationError{
				Kind:   ErrIndexOutOfRange,
				Field:  fmt.Sprintf("vertex_data.indices[%d]", i),
				Detail: fmt.Sprintf("index %d outside [0, %d)", idx, count),
			}
		}
	}

	d := *p
	d.VertexData.Positions = slices.Clone(vd.Positions)
	d.VertexData.Indices = slices.Clone(vd.Indices)
	if d.VertexEntryPoint == "" {
		d.VertexEntryPoint = DefaultVertexEntryPoint
	}
	if d.FragmentEntryPoint == "" {
		d.FragmentEntryPoint = DefaultFragmentEntryPoint
	}
	return &d, nil
}

// validator collects the first type error and the first non-finite value
// seen while converting numeric fields.
type validator struct {
	malformed *ValidationError
	nonFinite *ValidationError
}

func (v *validator) numbers(field string, in []any) []float64 {
	if len(in) == 0 {
		return nil
	}
	out := make([]float64, len(in))
	for i, e := range in {
		f, ok := toFloat(e)
		if !ok {
			if v.malformed == nil {
				v.malformed = malformed(fmt.Sprintf("%s[%d]", field, i), "expected a number, got %T", e)
			}
			continue
		}
		if (math.IsNaN(f) || math.IsInf(f, 0)) && v.nonFinite == nil {
			v.nonFinite = &ValidationError{
				Kind:   ErrInvalidNumericData,
				Field:  fmt.Sprintf("%s[%d]", field, i),
				Detail: fmt.Sprintf("non-finite value %v", f),
			}
		}
		out[i] = f
	}
	return out
}

func (v *validator) finite(field string, in []float64) {
	if v.nonFinite != nil {
		return
	}
	for i, f := range in {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			v.nonFinite = &ValidationError{
				Kind:   ErrInvalidNumericData,
				Field:  fmt.Sprintf("%s[%d]", field, i),
				Detail: fmt.Sprintf("non-finite value %v", f),
			}
			return
		}
	}
}

func (v *validator) optionalNumber(field string, in any) *float64 {
	if in == nil {
		return nil
	}
	out := v.numbers(field, []any{in})
	if v.malformed != nil {
		// Report the scalar field without an element suffix.
		if v.malformed.Field == field+"[0]" {
			v.malformed.Field = field
		}
		return nil
	}
	if v.nonFinite != nil && v.nonFinite.Field == field+"[0]" {
		v.nonFinite.Field = field
	}
	return &out[0]
}

// tuple copies in to dst when in is present and has exactly len(dst) elements.
func tuple(field string, in []float64, dst []float64) error {
	if in == nil {
		return nil
	}
	if len(in) != len(dst) {
		return malformed(field, "expected %d components, got %d", len(dst), len(in))
	}
	copy(dst, in)
	return nil
}

func checkIndices(in []float64, vertexCount int) ([]uint32, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]uint32, len(in))
	for i, f := range in {
		field := fmt.Sprintf("vertex_data.indices[%d]", i)
		if f != math.Trunc(f) {
			return nil, malformed(field, "index %v is not an integer", f)
		}
		if f < 0 || f >= float64(vertexCount) {
			return nil, &ValidationError{
				Kind:   ErrIndexOutOfRange,
				Field:  field,
				Detail: fmt.Sprintf("index %v outside [0, %d)", f, vertexCount),
			}
		}
		out[i] = uint32(f)
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			// Overflow comes back as ±Inf with ErrRange.
			if errors.Is(err, strconv.ErrRange) && math.IsInf(f, 0) {
				return f, true
			}
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
