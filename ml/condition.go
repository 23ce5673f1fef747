package ml

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var ErrUnknownCondition = errors.New("unknown condition")

// Condition identifies one of the supported prediction domains.
type Condition string

const (
	Parkinsons Condition = "parkinsons"
	Diabetes   Condition = "diabetes"
	Heart      Condition = "heart"
)

var titleCaser = cases.Title(language.English)

// Conditions returns every supported condition in a stable order.
func Conditions() []Condition {
	return []Condition{Parkinsons, Diabetes, Heart}
}

// ParseCondition matches name case-insensitively against the known conditions.
func ParseCondition(name string) (Condition, error) {
	c := Condition(strings.ToLower(strings.TrimSpace(name)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %s", ErrUnknownCondition, name)
	}
	return c, nil
}

func (c Condition) Valid() bool {
	switch c {
	case Parkinsons, Diabetes, Heart:
		return true
	default:
		return false
	}
}

func (c Condition) String() string {
	return string(c)
}

// Title is the display form used in user-facing messages, e.g. "Heart".
func (c Condition) Title() string {
	return titleCaser.String(string(c))
}
