package dice

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/turnforge/internal/platform/errors"
)

// Notation is a parsed dice expression such as "2d4+2" or "1d20+1d4-1".
type Notation struct {
	Specs    []Spec
	Modifier int
}

// Parse parses a dice expression. Terms are dice groups ("2d6", "d20") or
// flat integers, joined by + or -. A minus sign applies to the flat term
// that follows it; negative dice groups are rejected.
func Parse(notation string) (Notation, error) {
	compact := strings.ToLower(strings.ReplaceAll(notation, " ", ""))
	if compact == "" {
		return Notation{}, apperrors.New(apperrors.CodeDiceInvalidNotation, "empty dice notation")
	}

	var parsed Notation
	sign := 1
	term := strings.Builder{}

	flush := func() error {
		t := term.String()
		term.Reset()
		if t == "" {
			return invalidNotation(notation)
		}
		if strings.Contains(t, "d") {
			if sign < 0 {
				return invalidNotation(notation)
			}
			spec, err := parseDiceTerm(t, notation)
			if err != nil {
				return err
			}
			parsed.Specs = append(parsed.Specs, spec)
			return nil
		}
		n, err := strconv.Atoi(t)
		if err != nil {
			return invalidNotation(notation)
		}
		parsed.Modifier += sign * n
		return nil
	}

	for _, r := range compact {
		switch r {
		case '+', '-':
			if err := flush(); err != nil {
				return Notation{}, err
			}
			sign = 1
			if r == '-' {
				sign = -1
			}
		default:
			term.WriteRune(r)
		}
	}
	if err := flush(); err != nil {
		return Notation{}, err
	}
	if len(parsed.Specs) == 0 {
		return Notation{}, ErrMissingDice
	}
	return parsed, nil
}

// Roll parses the expression and rolls it with the given seed.
func RollNotation(notation string, seed int64) (Result, error) {
	parsed, err := Parse(notation)
	if err != nil {
		return Result{}, err
	}
	return RollSeeded(seed, parsed.Modifier, parsed.Specs...)
}

func parseDiceTerm(term, notation string) (Spec, error) {
	countStr, sidesStr, ok := strings.Cut(term, "d")
	if !ok {
		return Spec{}, invalidNotation(notation)
	}
	count := 1
	if countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil {
			return Spec{}, invalidNotation(notation)
		}
		count = n
	}
	sides, err := strconv.Atoi(sidesStr)
	if err != nil {
		return Spec{}, invalidNotation(notation)
	}
	if count <= 0 || sides <= 0 {
		return Spec{}, ErrInvalidSpec
	}
	return Spec{Sides: sides, Count: count}, nil
}

func invalidNotation(notation string) error {
	return apperrors.New(apperrors.CodeDiceInvalidNotation, fmt.Sprintf("malformed dice notation %q", notation))
}
