package schema

import (
	"strconv"
	"strings"
)

// Kind selects the parse and validation rule of a field.
type Kind int

const (
	KindPositiveInt Kind = iota + 1
	KindNonNegativeInt
	KindPositiveDecimal
	KindNonNegativeDecimal
	KindCategorical
)

func (k Kind) String() string {
	switch k {
	case KindPositiveInt:
		return "positive_int"
	case KindNonNegativeInt:
		return "non_negative_int"
	case KindPositiveDecimal:
		return "positive_decimal"
	case KindNonNegativeDecimal:
		return "non_negative_decimal"
	case KindCategorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// Category maps one categorical label to its numeric code.
type Category struct {
	Label string
	Code  float64
}

// Field is one named feature with its parse rule.
type Field struct {
	Name       string
	Kind       Kind
	Categories []Category
}

// Parse validates a raw user value and converts it to its numeric encoding.
// Categorical values must match a label (case-insensitive).
func (f Field) Parse(raw string) (float64, error) {
	return f.parse(raw, false)
}

// parse implements Parse; acceptCodes additionally admits the canonical
// numeric code of a defined category, as found in pre-encoded CSV exports.
func (f Field) parse(raw string, acceptCodes bool) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, invalid(f.Name, "is required")
	}

	switch f.Kind {
	case KindPositiveInt, KindNonNegativeInt:
		if !isDigits(s) {
			return 0, invalid(f.Name, "must be a "+f.numericNoun())
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, invalid(f.Name, "is out of range")
		}
		if f.Kind == KindPositiveInt && n <= 0 {
			return 0, invalid(f.Name, "must be a "+f.numericNoun())
		}
		return float64(n), nil

	case KindPositiveDecimal, KindNonNegativeDecimal:
		if !isDecimal(s) {
			return 0, invalid(f.Name, "must be a "+f.numericNoun())
		}
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, invalid(f.Name, "is out of range")
		}
		if f.Kind == KindPositiveDecimal && x <= 0 {
			return 0, invalid(f.Name, "must be a "+f.numericNoun())
		}
		return x, nil

	case KindCategorical:
		for _, c := range f.Categories {
			if strings.EqualFold(s, c.Label) {
				return c.Code, nil
			}
		}
		if acceptCodes {
			for _, c := range f.Categories {
				if s == strconv.FormatFloat(c.Code, 'f', -1, 64) {
					return c.Code, nil
				}
			}
		}
		return 0, invalid(f.Name, "must be one of "+f.labelList())
	}
	return 0, invalid(f.Name, "has an unsupported kind")
}

func (f Field) numericNoun() string {
	switch f.Kind {
	case KindPositiveInt:
		return "positive integer"
	case KindNonNegativeInt:
		return "non-negative integer"
	case KindPositiveDecimal:
		return "positive number"
	default:
		return "non-negative number"
	}
}

func (f Field) labelList() string {
	quoted := make([]string, len(f.Categories))
	for i, c := range f.Categories {
		quoted[i] = "'" + c.Label + "'"
	}
	return strings.Join(quoted, ", ")
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// isDecimal accepts digits with at most one '.', and at least one digit.
func isDecimal(s string) bool {
	digits, dots := 0, 0
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] >= '0' && s[i] <= '9':
			digits++
		case s[i] == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}
