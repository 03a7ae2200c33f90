package itembank

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Field defaults applied to candidates that omit or garble a value.
const (
	DefaultType       = TypeMultipleChoice
	DefaultLevel      = LevelA2
	DefaultDifficulty = 0.5
)

// ErrNotRecord is returned when a candidate is not a structured record.
var ErrNotRecord = errors.New("candidate is not a record")

// placeholderChoices replace the options of a multiple-choice item that
// arrives without a usable choice list.
var placeholderChoices = []string{"Option A", "Option B", "Option C", "Option D"}

// Normalizer converts loosely typed candidate records into canonical items.
type Normalizer struct {
	// Now supplies timestamps for records that lack them.
	Now func() time.Time

	// NewID supplies identifiers for records that lack them.
	NewID func() string
}

// NewNormalizer returns a Normalizer using the wall clock and random UUIDs.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

var defaultNormalizer = NewNormalizer()

// Normalize converts raw with the default Normalizer.
func Normalize(raw any) (Item, error) {
	return defaultNormalizer.Normalize(raw)
}

// NormalizeBatch converts candidates with the default Normalizer.
func NormalizeBatch(candidates []any) BatchResult {
	return defaultNormalizer.NormalizeBatch(candidates)
}

// Normalize builds a fresh canonical Item from raw, or returns an error if
// raw is not a record (ErrNotRecord) or cannot be repaired into a valid
// item (*ValidationError). The input is never modified.
func (n *Normalizer) Normalize(raw any) (Item, error) {
	it, _, err := n.normalize(raw)
	return it, err
}

func (n *Normalizer) normalize(raw any) (Item, bool, error) {
	rec, ok := asRecord(raw)
	if !ok {
		return Item{}, false, ErrNotRecord
	}

	now := n.Now()
	it := Item{
		ID:              stringField(rec, "id"),
		OwnerID:         stringField(rec, "owner_id"),
		Type:            itemTypeField(rec["type"]),
		Level:           levelField(rec["level"]),
		Stem:            stringField(rec, "stem"),
		Options:         coerceOptions(rec["options"]),
		Answer:          coerceAnswer(rec["answer"]),
		Tags:            tagsField(rec["tags"]),
		DifficultyScore: DefaultDifficulty,
		CreatedAt:       timeField(rec["created_at"], now),
		UpdatedAt:       timeField(rec["updated_at"], now),
	}
	if it.ID == "" {
		it.ID = n.NewID()
	}
	if f, ok := number(rec["difficulty_score"]); ok {
		it.DifficultyScore = clamp01(f)
	}
	if f, ok := number(rec["usage_count"]); ok {
		it.UsageCount = usageCount(f)
	}

	repaired := false
	if it.Type == TypeMultipleChoice {
		repaired = repairMultipleChoice(&it)
	}

	if err := ValidateItem(it); err != nil {
		return Item{}, repaired, err
	}
	return it, repaired, nil
}

// repairMultipleChoice patches the minimum needed for a multiple-choice
// item to be assembled without crashing downstream. The result is not a
// correct question; callers report repaired items as a data-quality issue.
func repairMultipleChoice(it *Item) bool {
	if (&MultipleChoiceValidator{}).Validate(it) == nil {
		return false
	}
	if opts, ok := it.Options.([]string); !ok || len(opts) < 2 {
		it.Options = slices.Clone(placeholderChoices)
	}
	if ans, ok := it.Answer.(string); !ok || !slices.Contains(ChoiceSelectors, ans) {
		it.Answer = ChoiceSelectors[0]
	}
	return true
}

// FailedRecord pairs a rejected candidate with the reason it was rejected.
type FailedRecord struct {
	Original any    `json:"original"`
	Error    string `json:"error"`
}

// BatchResult partitions a batch of candidates.
// len(Successful)+len(Failed) always equals the batch size.
type BatchResult struct {
	Successful []Item         `json:"successful"`
	Failed     []FailedRecord `json:"failed"`

	// Repaired lists the IDs of successful items that needed
	// multiple-choice self-healing.
	Repaired []string `json:"repaired,omitempty"`
}

// NormalizeBatch converts each candidate independently. A candidate that
// fails, or panics during conversion, lands in Failed; the batch continues.
func (n *Normalizer) NormalizeBatch(candidates []any) BatchResult {
	res := BatchResult{
		Successful: make([]Item, 0, len(candidates)),
		Failed:     []FailedRecord{},
	}
	for _, raw := range candidates {
		it, repaired, err := n.safeNormalize(raw)
		if err != nil {
			res.Failed = append(res.Failed, FailedRecord{Original: raw, Error: err.Error()})
			continue
		}
		res.Successful = append(res.Successful, it)
		if repaired {
			res.Repaired = append(res.Repaired, it.ID)
		}
	}
	return res
}

func (n *Normalizer) safeNormalize(raw any) (it Item, repaired bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			it, repaired, err = Item{}, false, fmt.Errorf("normalize panicked: %v", r)
		}
	}()
	return n.normalize(raw)
}

func asRecord(raw any) (Record, bool) {
	switch v := raw.(type) {
	case map[string]any:
		if v == nil {
			return nil, false
		}
		return v, true
	case Item:
		return v.Record(), true
	case *Item:
		if v == nil {
			return nil, false
		}
		return v.Record(), true
	}
	return nil, false
}

func stringField(rec Record, key string) string {
	s, _ := rec[key].(string)
	return s
}

func itemTypeField(v any) ItemType {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return DefaultType
	}
	if t, ok := ParseItemType(s); ok {
		return t
	}
	// Unknown names are kept so validation can reject them.
	return ItemType(s)
}

func levelField(v any) Level {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return DefaultLevel
	}
	if l, ok := ParseLevel(s); ok {
		return l
	}
	return Level(s)
}

func tagsField(v any) []string {
	tags := []string{}
	var raw []string
	switch t := v.(type) {
	case []string:
		raw = t
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok {
				raw = append(raw, s)
			}
		}
	}
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" && !slices.Contains(tags, s) {
			tags = append(tags, s)
		}
	}
	return tags
}

func timeField(v any, now time.Time) time.Time {
	switch t := v.(type) {
	case time.Time:
		if !t.IsZero() {
			return t
		}
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	}
	return now
}

// number reports v as a float64 when it holds a numeric value.
// NaN is treated as non-numeric.
func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

func usageCount(f float64) int {
	switch {
	case f <= 0:
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	}
	return int(f)
}

// coerceOptions maps decoded JSON option shapes onto their canonical Go
// types. Shapes it does not recognise are copied through unchanged.
func coerceOptions(v any) any {
	switch o := v.(type) {
	case nil:
		return nil
	case []string:
		return slices.Clone(o)
	case []any:
		if ss, ok := stringSlice(o); ok {
			return ss
		}
		return slices.Clone(o)
	case MatchingOptions:
		return MatchingOptions{Left: slices.Clone(o.Left), Right: slices.Clone(o.Right)}
	case *MatchingOptions:
		if o == nil {
			return nil
		}
		return MatchingOptions{Left: slices.Clone(o.Left), Right: slices.Clone(o.Right)}
	case map[string]any:
		left, lok := stringSlice(o["left"])
		right, rok := stringSlice(o["right"])
		if lok && rok {
			return MatchingOptions{Left: left, Right: right}
		}
		return copyMap(o)
	}
	return v
}

func coerceAnswer(v any) any {
	switch a := v.(type) {
	case []string:
		return slices.Clone(a)
	case []any:
		if ss, ok := stringSlice(a); ok {
			return ss
		}
		return slices.Clone(a)
	case map[string]string:
		out := make(map[string]string, len(a))
		for k, s := range a {
			out[k] = s
		}
		return out
	case map[string]any:
		out := make(map[string]string, len(a))
		for k, e := range a {
			s, ok := e.(string)
			if !ok {
				return copyMap(a)
			}
			out[k] = s
		}
		return out
	}
	return v
}

// stringSlice converts a []any or []string whose elements are all strings.
func stringSlice(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return slices.Clone(s), true
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	}
	return nil, false
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
