package itembank

import (
	"slices"
	"strings"
	"time"
)

// ItemType identifies the shape of a test item.
type ItemType string

const (
	TypeMultipleChoice       ItemType = "multiple_choice"
	TypeCloze                ItemType = "cloze"
	TypeErrorCorrection      ItemType = "error_correction"
	TypeMatching             ItemType = "matching"
	TypeReadingComprehension ItemType = "reading_comprehension"
	TypeWritingTask          ItemType = "writing_task"
)

// AllItemTypes lists every item type in canonical order. Anything that
// iterates over types (grouping, substitution, reports) uses this order so
// results do not depend on map iteration.
var AllItemTypes = []ItemType{
	TypeMultipleChoice,
	TypeCloze,
	TypeErrorCorrection,
	TypeMatching,
	TypeReadingComprehension,
	TypeWritingTask,
}

var itemTypeAliases = map[string]ItemType{
	"multiple_choice":                TypeMultipleChoice,
	"multiplechoice":                 TypeMultipleChoice,
	"mcq":                            TypeMultipleChoice,
	"cloze":                          TypeCloze,
	"fill_in_blank":                  TypeCloze,
	"fill_in_the_blank":              TypeCloze,
	"gap_fill":                       TypeCloze,
	"error_correction":               TypeErrorCorrection,
	"matching":                       TypeMatching,
	"reading_comprehension":          TypeReadingComprehension,
	"reading_comprehension_question": TypeReadingComprehension,
	"reading":                        TypeReadingComprehension,
	"writing_task":                   TypeWritingTask,
	"writing":                        TypeWritingTask,
}

// ParseItemType resolves a loosely formatted type name ("Multiple-Choice",
// "fill_in_blank", "mcq") to an ItemType.
func ParseItemType(s string) (ItemType, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	t, ok := itemTypeAliases[key]
	return t, ok
}

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	return slices.Contains(AllItemTypes, t)
}

// DisplayName returns a human-readable name for the type.
func (t ItemType) DisplayName() string {
	return strings.ReplaceAll(string(t), "_", " ")
}

// Level is a CEFR proficiency band.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// AllLevels lists the CEFR levels from lowest to highest.
var AllLevels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// ParseLevel parses a CEFR level case-insensitively.
func ParseLevel(s string) (Level, bool) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	return l, l.Valid()
}

// Valid reports whether l is a known CEFR level.
func (l Level) Valid() bool {
	return slices.Contains(AllLevels, l)
}

// Rank returns the position of l in AllLevels, or -1 for unknown levels.
func (l Level) Rank() int {
	return slices.Index(AllLevels, l)
}

// MatchingOptions holds the two columns of a matching item.
type MatchingOptions struct {
	Left  []string `json:"left"`
	Right []string `json:"right"`
}

// Item is a single canonical test question.
type Item struct {
	ID      string   `json:"id"`
	OwnerID string   `json:"owner_id"`
	Type    ItemType `json:"type"`
	Level   Level    `json:"level"`
	Stem    string   `json:"stem"`

	// Options is []string for multiple choice, MatchingOptions for matching
	// and nil for free-response types.
	Options any `json:"options,omitempty"`

	// Answer is a string, []string (multi-blank cloze) or
	// map[string]string (matching) depending on Type.
	Answer any `json:"answer"`

	Tags            []string  `json:"tags"`
	DifficultyScore float64   `json:"difficulty_score"`
	UsageCount      int       `json:"usage_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasTag reports whether the item carries tag (case-insensitive).
func (it Item) HasTag(tag string) bool {
	for _, t := range it.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Record is the loosely typed form candidate items arrive in.
type Record = map[string]any

// Record renders the item as a Record. Normalizing the result yields an
// item equal to it.
func (it Item) Record() Record {
	r := Record{
		"id":               it.ID,
		"owner_id":         it.OwnerID,
		"type":             string(it.Type),
		"level":            string(it.Level),
		"stem":             it.Stem,
		"answer":           it.Answer,
		"tags":             slices.Clone(it.Tags),
		"difficulty_score": it.DifficultyScore,
		"usage_count":      it.UsageCount,
		"created_at":       it.CreatedAt,
		"updated_at":       it.UpdatedAt,
	}
	if it.Options != nil {
		r["options"] = it.Options
	}
	return r
}
