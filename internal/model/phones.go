package model

import (
	"encoding/json"
	"regexp"
	"strings"
)

// PhoneInput accepts either a JSON array of phone strings or a single
// delimited string ("123, 456", full-width comma and ideographic comma
// included). The zero value behaves like an absent field.
type PhoneInput struct {
	values []string
	raw    string
	isList bool
}

// NewPhoneInput builds a PhoneInput from an already split list of values.
func NewPhoneInput(values ...string) PhoneInput {
	return PhoneInput{values: values, isList: true}
}

// NewPhoneString builds a PhoneInput from a single delimited string.
func NewPhoneString(raw string) PhoneInput {
	return PhoneInput{raw: raw}
}

func (p *PhoneInput) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = PhoneInput{}
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var values []string
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		*p = PhoneInput{values: values, isList: true}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = PhoneInput{raw: raw}
	return nil
}

// MarshalJSON always emits the normalized array form, never the raw
// delimited string it may have been parsed from.
func (p PhoneInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Normalize())
}

// phoneDelims matches runs of full-width commas, ideographic commas and
// whitespace, which the string form accepts interchangeably with ",".
var phoneDelims = regexp.MustCompile(`[、，\s]+`)

// Normalize flattens the input into trimmed, non-empty phone strings in
// first-occurrence order. A null/absent input yields an empty sequence and
// normalizing an already normalized list returns it unchanged.
func (p PhoneInput) Normalize() []string {
	if p.isList {
		return cleanPhones(p.values)
	}
	if p.raw == "" {
		return []string{}
	}
	cleaned := phoneDelims.ReplaceAllString(p.raw, ",")
	return cleanPhones(strings.Split(cleaned, ","))
}

func cleanPhones(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
