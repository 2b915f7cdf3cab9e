package ml

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// medianAge replaces an age of 0, which the training data treated as "unknown".
const medianAge = 28

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

type Embarked string

const (
	EmbarkedS Embarked = "S"
	EmbarkedC Embarked = "C"
	EmbarkedQ Embarked = "Q"
)

// Passenger is the raw input to the pipeline, after decoding and enum
// parsing but before validation.
type Passenger struct {
	Name     string
	Pclass   int
	Sex      Sex
	Age      int
	SibSp    int
	Parch    int
	Fare     float64
	Embarked Embarked
	HasCabin bool
}

// ParseSex rejects anything outside the closed category set.
func ParseSex(s string) (Sex, bool) {
	switch Sex(s) {
	case SexMale, SexFemale:
		return Sex(s), true
	}
	return "", false
}

// ParseEmbarked accepts S, C or Q. The empty string maps to S, the most
// common port, matching the documented default of the original form.
func ParseEmbarked(s string) (Embarked, bool) {
	if s == "" {
		return EmbarkedS, true
	}
	switch Embarked(s) {
	case EmbarkedS, EmbarkedC, EmbarkedQ:
		return Embarked(s), true
	}
	return "", false
}

// FeatureVector holds the 14 engineered features in the exact order the
// classifier was trained on. Vector and FeatureNames must stay in lockstep
// with each other and with the artifact schema.
type FeatureVector struct {
	Pclass     float64
	Age        float64
	SibSp      float64
	Parch      float64
	Fare       float64
	HasCabin   float64
	FamilySize float64
	SexMale    float64
	EmbarkedQ  float64
	EmbarkedS  float64
	TitleMiss  float64
	TitleMr    float64
	TitleMrs   float64
	TitleOther float64
}

func (f FeatureVector) Vector() []float64 {
	return []float64{
		f.Pclass,
		f.Age,
		f.SibSp,
		f.Parch,
		f.Fare,
		f.HasCabin,
		f.FamilySize,
		f.SexMale,
		f.EmbarkedQ,
		f.EmbarkedS,
		f.TitleMiss,
		f.TitleMr,
		f.TitleMrs,
		f.TitleOther,
	}
}

func FeatureNames() []string {
	return []string{
		"Pclass",
		"Age",
		"SibSp",
		"Parch",
		"Fare",
		"Has_Cabin",
		"FamilySize",
		"Sex_male",
		"Embarked_Q",
		"Embarked_S",
		"Title_Miss",
		"Title_Mr",
		"Title_Mrs",
		"Title_Other",
	}
}

// NormalizeName trims and title-cases a passenger name the way the training
// set was normalized.
func NormalizeName(name string) string {
	return cases.Title(language.English).String(strings.TrimSpace(name))
}

// EffectiveAge applies the median substitution for an unrecorded age.
func EffectiveAge(age int) int {
	if age == 0 {
		return medianAge
	}
	return age
}

// BuildFeatures maps a validated passenger onto the classifier's feature
// schema. It has no failure path: the validator has already approved the
// input, and every categorical falls into a defined bucket.
func BuildFeatures(p Passenger) FeatureVector {
	title := TitleOf(NormalizeName(p.Name))

	fv := FeatureVector{
		Pclass:     float64(p.Pclass),
		Age:        float64(EffectiveAge(p.Age)),
		SibSp:      float64(p.SibSp),
		Parch:      float64(p.Parch),
		Fare:       p.Fare,
		FamilySize: float64(p.SibSp + p.Parch + 1),
	}
	if p.HasCabin {
		fv.HasCabin = 1
	}
	if p.Sex == SexMale {
		fv.SexMale = 1
	}
	// Embarked C is the reference category: both flags stay zero.
	switch p.Embarked {
	case EmbarkedQ:
		fv.EmbarkedQ = 1
	case EmbarkedS:
		fv.EmbarkedS = 1
	}
	switch title {
	case "Miss":
		fv.TitleMiss = 1
	case "Mr":
		fv.TitleMr = 1
	case "Mrs":
		fv.TitleMrs = 1
	default:
		fv.TitleOther = 1
	}
	return fv
}
