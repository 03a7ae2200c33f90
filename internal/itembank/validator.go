package itembank

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// BlankMarker is the placeholder a cloze stem uses for each gap.
const BlankMarker = "___"

// ChoiceSelectors are the accepted answers for a multiple-choice item.
var ChoiceSelectors = []string{"A", "B", "C", "D"}

// Validator checks one aspect of an item.
// Implementations are stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier used in error messages,
	// e.g. "structural", "multiple-choice".
	Name() string

	// Validate returns nil if the item passes the check.
	Validate(it *Item) *ValidationError
}

// ValidationError describes why an item failed validation.
type ValidationError struct {
	Validator string // Name of the validator that failed
	Field     string // Offending field, e.g. "difficulty_score"
	Message   string // Human-readable description of the failure
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s: %s", e.Validator, e.Field, e.Message)
}

// StructuralValidator is the generic predicate every item must satisfy
// regardless of type.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(it *Item) *ValidationError {
	fail := func(field, msg string) *ValidationError {
		return &ValidationError{Validator: v.Name(), Field: field, Message: msg}
	}
	switch {
	case it.ID == "":
		return fail("id", "is empty")
	case it.OwnerID == "":
		return fail("owner_id", "is empty")
	case !it.Type.Valid():
		return fail("type", fmt.Sprintf("unknown item type %q", it.Type))
	case !it.Level.Valid():
		return fail("level", fmt.Sprintf("unknown CEFR level %q", it.Level))
	case strings.TrimSpace(it.Stem) == "":
		return fail("stem", "is empty")
	case it.Answer == nil:
		return fail("answer", "is missing")
	case it.Tags == nil:
		return fail("tags", "is missing")
	case math.IsNaN(it.DifficultyScore) || it.DifficultyScore < 0 || it.DifficultyScore > 1:
		return fail("difficulty_score", fmt.Sprintf("%v is outside [0,1]", it.DifficultyScore))
	case it.UsageCount < 0:
		return fail("usage_count", "is negative")
	case it.CreatedAt.IsZero():
		return fail("created_at", "is missing")
	case it.UpdatedAt.IsZero():
		return fail("updated_at", "is missing")
	}
	return nil
}

// MultipleChoiceValidator requires at least two string options and a
// single-letter selector answer.
type MultipleChoiceValidator struct{}

func (v *MultipleChoiceValidator) Name() string { return "multiple-choice" }

func (v *MultipleChoiceValidator) Validate(it *Item) *ValidationError {
	opts, ok := it.Options.([]string)
	if !ok || len(opts) < 2 {
		return &ValidationError{
			Validator: v.Name(),
			Field:     "options",
			Message:   "must be a list of at least 2 choices",
		}
	}
	ans, ok := it.Answer.(string)
	if !ok || !slices.Contains(ChoiceSelectors, ans) {
		return &ValidationError{
			Validator: v.Name(),
			Field:     "answer",
			Message:   fmt.Sprintf("must be one of %s", strings.Join(ChoiceSelectors, ", ")),
		}
	}
	return nil
}

// ClozeValidator requires a blank marker in the stem and a string or
// list-of-strings answer.
type ClozeValidator struct{}

func (v *ClozeValidator) Name() string { return "cloze" }

func (v *ClozeValidator) Validate(it *Item) *ValidationError {
	if !strings.Contains(it.Stem, BlankMarker) {
		return &ValidationError{
			Validator: v.Name(),
			Field:     "stem",
			Message:   fmt.Sprintf("has no blank marker %q", BlankMarker),
		}
	}
	switch it.Answer.(type) {
	case string, []string:
		return nil
	}
	return &ValidationError{
		Validator: v.Name(),
		Field:     "answer",
		Message:   "must be a string or a list of strings",
	}
}

// MatchingValidator requires left/right option columns and a mapping answer.
type MatchingValidator struct{}

func (v *MatchingValidator) Name() string { return "matching" }

func (v *MatchingValidator) Validate(it *Item) *ValidationError {
	opts, ok := it.Options.(MatchingOptions)
	if !ok || opts.Left == nil || opts.Right == nil {
		return &ValidationError{
			Validator: v.Name(),
			Field:     "options",
			Message:   "must have left and right lists",
		}
	}
	if _, ok := it.Answer.(map[string]string); !ok {
		return &ValidationError{
			Validator: v.Name(),
			Field:     "answer",
			Message:   "must map left entries to right entries",
		}
	}
	return nil
}

// typeValidators holds the refinements that compose on top of the
// structural check. Types without an entry only need the generic predicate.
var typeValidators = map[ItemType]Validator{
	TypeMultipleChoice: &MultipleChoiceValidator{},
	TypeCloze:          &ClozeValidator{},
	TypeMatching:       &MatchingValidator{},
}

// ValidateItem runs the generic predicate.
func ValidateItem(it Item) *ValidationError {
	return (&StructuralValidator{}).Validate(&it)
}

// IsValidItem reports whether it satisfies the generic predicate.
func IsValidItem(it Item) bool {
	return ValidateItem(it) == nil
}

// ValidateTyped runs the generic predicate followed by the refinement for
// the item's type, if any.
func ValidateTyped(it Item) *ValidationError {
	if err := ValidateItem(it); err != nil {
		return err
	}
	if v, ok := typeValidators[it.Type]; ok {
		return v.Validate(&it)
	}
	return nil
}
