package models

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// EmptyPromptMessage is shown when a request is submitted without a prompt
const EmptyPromptMessage = "Prompt cannot be empty."

// Attribute names an optional descriptive field of a generation request.
// The value doubles as the JSON key sent to the service.
type Attribute string

const (
	AttrStyle              Attribute = "style"
	AttrEnvironment        Attribute = "environment"
	AttrLighting           Attribute = "lighting"
	AttrColorScheme        Attribute = "color_scheme"
	AttrSpecialFeatures    Attribute = "special_features"
	AttrScale              Attribute = "scale"
	AttrLevelOfDetail      Attribute = "level_of_detail"
	AttrMaterialAppearance Attribute = "material_appearance"
	AttrSymmetry           Attribute = "symmetry"
	AttrAnimation          Attribute = "animation"
	AttrOutputFormat       Attribute = "output_format"
	AttrOtherRequirements  Attribute = "other_requirements"
)

// AllAttributes lists every optional attribute in form order
var AllAttributes = []Attribute{
	AttrStyle,
	AttrEnvironment,
	AttrLighting,
	AttrColorScheme,
	AttrSpecialFeatures,
	AttrScale,
	AttrLevelOfDetail,
	AttrMaterialAppearance,
	AttrSymmetry,
	AttrAnimation,
	AttrOutputFormat,
	AttrOtherRequirements,
}

// ParseAttribute resolves a JSON attribute name, accepting dashes for underscores
func ParseAttribute(name string) (Attribute, bool) {
	normalized := strings.ReplaceAll(strings.TrimSpace(strings.ToLower(name)), "-", "_")
	for _, attr := range AllAttributes {
		if string(attr) == normalized {
			return attr, true
		}
	}
	return "", false
}

// GenerationRequest is what the user asks the service to build
type GenerationRequest struct {
	Prompt             string `json:"prompt" validate:"required"`
	Style              string `json:"style,omitempty"`
	Environment        string `json:"environment,omitempty"`
	Lighting           string `json:"lighting,omitempty"`
	ColorScheme        string `json:"color_scheme,omitempty"`
	SpecialFeatures    string `json:"special_features,omitempty"`
	Scale              string `json:"scale,omitempty"`
	LevelOfDetail      string `json:"level_of_detail,omitempty"`
	MaterialAppearance string `json:"material_appearance,omitempty"`
	Symmetry           string `json:"symmetry,omitempty"`
	Animation          string `json:"animation,omitempty"`
	OutputFormat       string `json:"output_format,omitempty"`
	OtherRequirements  string `json:"other_requirements,omitempty"`
}

var validate = validator.New()

// Get returns the value of an optional attribute
func (r GenerationRequest) Get(attr Attribute) string {
	if p := r.field(attr); p != nil {
		return *p
	}
	return ""
}

// Set assigns an optional attribute, ignoring unknown names
func (r *GenerationRequest) Set(attr Attribute, value string) {
	if p := r.field(attr); p != nil {
		*p = value
	}
}

func (r *GenerationRequest) field(attr Attribute) *string {
	switch attr {
	case AttrStyle:
		return &r.Style
	case AttrEnvironment:
		return &r.Environment
	case AttrLighting:
		return &r.Lighting
	case AttrColorScheme:
		return &r.ColorScheme
	case AttrSpecialFeatures:
		return &r.SpecialFeatures
	case AttrScale:
		return &r.Scale
	case AttrLevelOfDetail:
		return &r.LevelOfDetail
	case AttrMaterialAppearance:
		return &r.MaterialAppearance
	case AttrSymmetry:
		return &r.Symmetry
	case AttrAnimation:
		return &r.Animation
	case AttrOutputFormat:
		return &r.OutputFormat
	case AttrOtherRequirements:
		return &r.OtherRequirements
	}
	return nil
}

// Normalize returns a copy with surrounding whitespace trimmed from every field
func (r GenerationRequest) Normalize() GenerationRequest {
	out := r
	out.Prompt = strings.TrimSpace(r.Prompt)
	for _, attr := range AllAttributes {
		out.Set(attr, strings.TrimSpace(r.Get(attr)))
	}
	return out
}

// Validate checks the request can be submitted. Call Normalize first so a
// whitespace-only prompt counts as empty.
func (r GenerationRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return &ValidationError{Message: EmptyPromptMessage}
		}
		return &ValidationError{Message: err.Error()}
	}
	return nil
}

// Payload builds the request body. The prompt is always present; fields
// selects which attributes participate, nil meaning all of them.
func (r GenerationRequest) Payload(fields []Attribute) map[string]string {
	if fields == nil {
		fields = AllAttributes
	}

	body := make(map[string]string, len(fields)+1)
	body["prompt"] = r.Prompt
	for _, attr := range fields {
		body[string(attr)] = r.Get(attr)
	}
	return body
}
