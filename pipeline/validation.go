// Package pipeline validates raw passenger input before feature building.
package pipeline

import (
	"strings"

	"steerage/ml"
)

// ValidationRule checks one constraint on the raw input. An empty string
// means the rule passed. Rules must be independent: the validator runs all
// of them so that simultaneous violations are all reported.
type ValidationRule interface {
	Check(p ml.Passenger) string
	Name() string
}

type Validator struct {
	rules []ValidationRule
}

func NewValidator() *Validator {
	v := &Validator{}
	v.AddRule(NameRule{})
	v.AddRule(FareRule{})
	v.AddRule(AgeRule{})
	return v
}

func (v *Validator) AddRule(rule ValidationRule) {
	v.rules = append(v.rules, rule)
}

// Validate returns the collected violation messages; an empty slice means
// the input may proceed to feature building. No side effects.
func (v *Validator) Validate(p ml.Passenger) []string {
	var messages []string
	for _, rule := range v.rules {
		if msg := rule.Check(p); msg != "" {
			messages = append(messages, msg)
		}
	}
	return messages
}

type NameRule struct{}

func (NameRule) Name() string { return "name_required" }

func (NameRule) Check(p ml.Passenger) string {
	if strings.TrimSpace(p.Name) == "" {
		return "Name cannot be empty."
	}
	return ""
}

type FareRule struct{}

func (FareRule) Name() string { return "fare_positive" }

func (FareRule) Check(p ml.Passenger) string {
	if p.Fare <= 0 {
		return "Fare must be greater than zero."
	}
	return ""
}

type AgeRule struct{}

func (AgeRule) Name() string { return "age_bounds" }

func (AgeRule) Check(p ml.Passenger) string {
	if p.Age < 0 || p.Age > 100 {
		return "Age must be between 0 and 100."
	}
	return ""
}
