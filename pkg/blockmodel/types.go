package blockmodel

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Model struct {
	Parent           string            `json:"parent"`
	AmbientOcclusion *bool             `json:"ambientocclusion"`
	Textures         map[string]string `json:"textures"`
	Elements         []Element         `json:"elements"`
}

type Element struct {
	From     [3]float32      `json:"from"`
	To       [3]float32      `json:"to"`
	Rotation *Rotation       `json:"rotation"`
	Shade    *bool           `json:"shade"`
	Faces    map[string]Face `json:"faces"`
}

type Rotation struct {
	Origin  [3]float32 `json:"origin"`
	Angle   float32    `json:"angle"`
	Axis    string     `json:"axis"`
	Rescale bool       `json:"rescale"`
}

type Face struct {
	UV        *[4]float32 `json:"uv"`
	Texture   string      `json:"texture"`
	CullFace  string      `json:"cullface"`
	Rotation  int         `json:"rotation"`
	TintIndex *int        `json:"tintindex"`
}

// BlockState defines the blockstate JSON structure. A blockstate file
// uses either "variants" or "multipart", never both.
type BlockState struct {
	// Variants maps property strings ("facing=north,lit=true") to models.
	Variants map[string]VariantList `json:"variants"`
	// Multipart lists conditional model parts combined additively.
	Multipart []MultipartCase `json:"multipart"`
}

// VariantList is a custom type to handle the fact that a variant entry
// can contain either a single object or an array of weighted objects.
type VariantList []Variant

func (v *VariantList) UnmarshalJSON(data []byte) error {
	// First, try to unmarshal as an array
	var variants []Variant
	if err := json.Unmarshal(data, &variants); err == nil {
		*v = variants
		return nil
	}

	// If that fails, try to unmarshal as a single object
	var single Variant
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}

	*v = []Variant{single}
	return nil
}

type Variant struct {
	Model  string `json:"model"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	UVLock bool   `json:"uvlock"`
	Weight int    `json:"weight"`
}

type MultipartCase struct {
	When  *MultipartCondition `json:"when"`
	Apply VariantList         `json:"apply"`
}

// MultipartCondition is either a property match, an OR list, or an
// AND list. Property values may contain "|" separated alternatives.
type MultipartCondition struct {
	Or    []MultipartCondition
	And   []MultipartCondition
	Match map[string]string
}

func (c *MultipartCondition) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if or, ok := raw["OR"]; ok {
		return json.Unmarshal(or, &c.Or)
	}
	if and, ok := raw["AND"]; ok {
		return json.Unmarshal(and, &c.And)
	}
	c.Match = make(map[string]string, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			// Booleans and numbers appear unquoted in some packs.
			var any interface{}
			if err := json.Unmarshal(v, &any); err != nil {
				return err
			}
			s = fmt.Sprintf("%v", any)
		}
		c.Match[k] = s
	}
	return nil
}

// Matches reports whether the condition holds for the given property
// map. A nil condition always holds.
func (c *MultipartCondition) Matches(props map[string]string) bool {
	if c == nil {
		return true
	}
	if len(c.Or) > 0 {
		for i := range c.Or {
			if c.Or[i].Matches(props) {
				return true
			}
		}
		return false
	}
	if len(c.And) > 0 {
		for i := range c.And {
			if !c.And[i].Matches(props) {
				return false
			}
		}
		return true
	}
	for key, want := range c.Match {
		got, ok := props[key]
		if !ok {
			return false
		}
		matched := false
		for _, alt := range strings.Split(want, "|") {
			if got == alt {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
