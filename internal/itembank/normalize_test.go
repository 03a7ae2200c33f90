package itembank

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNormalizer() *Normalizer {
	seq := 0
	return &Normalizer{
		Now: func() time.Time { return testTime },
		NewID: func() string {
			seq++
			return fmt.Sprintf("gen-%d", seq)
		},
	}
}

func TestNormalize_RejectsNonRecords(t *testing.T) {
	n := testNormalizer()
	var nilItem *Item
	var nilMap map[string]any
	for _, raw := range []any{nil, 42, "item", true, 3.5, []any{Record{}}, []string{"a"}, nilItem, nilMap} {
		_, err := n.Normalize(raw)
		assert.ErrorIs(t, err, ErrNotRecord, "input %#v", raw)
	}
}

func TestNormalize_AppliesDefaults(t *testing.T) {
	n := testNormalizer()
	it, err := n.Normalize(Record{
		"owner_id": "teacher-1",
		"stem":     "Pick the right word.",
	})
	require.NoError(t, err)

	assert.Equal(t, "gen-1", it.ID)
	assert.Equal(t, DefaultType, it.Type)
	assert.Equal(t, DefaultLevel, it.Level)
	assert.Equal(t, DefaultDifficulty, it.DifficultyScore)
	assert.Equal(t, 0, it.UsageCount)
	assert.Equal(t, []string{}, it.Tags)
	assert.Equal(t, testTime, it.CreatedAt)
	assert.Equal(t, testTime, it.UpdatedAt)

	// Multiple-choice defaults trigger self-healing.
	assert.Equal(t, placeholderChoices, it.Options)
	assert.Equal(t, "A", it.Answer)
}

func TestNormalize_MissingOwnerFails(t *testing.T) {
	_, err := testNormalizer().Normalize(Record{"stem": "Hello ___", "type": "cloze", "answer": "world"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "owner_id", verr.Field)
}

func TestNormalize_UnknownTypeFails(t *testing.T) {
	_, err := testNormalizer().Normalize(Record{
		"owner_id": "t", "stem": "Write.", "type": "essay", "answer": "x",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "type", verr.Field)
}

func TestNormalize_ClampsDifficulty(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{-5, 0},
		{3.2, 1},
		{0.75, 0.75},
		{json.Number("0.2"), 0.2},
		{"0.9", DefaultDifficulty},
		{nil, DefaultDifficulty},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.in), func(t *testing.T) {
			it, err := testNormalizer().Normalize(Record{
				"owner_id": "t", "stem": "s", "answer": "A",
				"options":          []any{"x", "y"},
				"difficulty_score": tt.in,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, it.DifficultyScore)
		})
	}
}

func TestNormalize_UsageCount(t *testing.T) {
	for in, want := range map[any]int{7: 7, 2.9: 2, -4: 0, "12": 0} {
		it, err := testNormalizer().Normalize(Record{
			"owner_id": "t", "stem": "s", "answer": "A",
			"options": []any{"x", "y"}, "usage_count": in,
		})
		require.NoError(t, err)
		assert.Equal(t, want, it.UsageCount, "input %v", in)
	}
}

func TestNormalize_CoercesDecodedJSON(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "m-1",
		"owner_id": "teacher-9",
		"type": "Matching",
		"level": "c1",
		"stem": "Match the idioms to their meanings.",
		"options": {"left": ["break the ice", "hit the sack"], "right": ["go to bed", "start a conversation"]},
		"answer": {"break the ice": "start a conversation", "hit the sack": "go to bed"},
		"tags": ["idioms", " idioms ", "", 7],
		"difficulty_score": 0.8,
		"usage_count": 4,
		"created_at": "2026-01-02T03:04:05Z"
	}`), &raw))

	it, err := testNormalizer().Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, TypeMatching, it.Type)
	assert.Equal(t, LevelC1, it.Level)
	assert.Equal(t, MatchingOptions{
		Left:  []string{"break the ice", "hit the sack"},
		Right: []string{"go to bed", "start a conversation"},
	}, it.Options)
	assert.Equal(t, map[string]string{
		"break the ice": "start a conversation",
		"hit the sack":  "go to bed",
	}, it.Answer)
	assert.Equal(t, []string{"idioms"}, it.Tags)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), it.CreatedAt)
	assert.Equal(t, testTime, it.UpdatedAt)
	assert.Nil(t, ValidateTyped(it))
}

func TestNormalize_DoesNotShareCallerState(t *testing.T) {
	tags := []any{"grammar"}
	opts := []string{"a", "b", "c"}
	raw := Record{"owner_id": "t", "stem": "s", "answer": "C", "options": opts, "tags": tags}

	it, err := testNormalizer().Normalize(raw)
	require.NoError(t, err)

	opts[0] = "changed"
	tags[0] = "changed"
	assert.Equal(t, []string{"a", "b", "c"}, it.Options)
	assert.Equal(t, []string{"grammar"}, it.Tags)
	assert.Len(t, raw, 5, "input record must not be modified")
}

func TestNormalize_Idempotent(t *testing.T) {
	items := []Item{validItem()}

	cloze := validItem()
	cloze.ID = "cloze-1"
	cloze.Type = TypeCloze
	cloze.Options = nil
	cloze.Answer = []string{"goes"}
	items = append(items, cloze)

	match := validItem()
	match.ID = "match-1"
	match.Type = TypeMatching
	match.Options = MatchingOptions{Left: []string{"a"}, Right: []string{"b"}}
	match.Answer = map[string]string{"a": "b"}
	items = append(items, match)

	n := testNormalizer()
	for _, it := range items {
		got, err := n.Normalize(it)
		require.NoError(t, err)
		assert.Equal(t, it, got)

		again, err := n.Normalize(got.Record())
		require.NoError(t, err)
		assert.Equal(t, got, again)

		ptr, err := n.Normalize(&it)
		require.NoError(t, err)
		assert.Equal(t, it, ptr)
	}
}

func TestNormalize_Totality(t *testing.T) {
	candidates := []Record{
		{},
		{"owner_id": ""},
		{"owner_id": "t"},
		{"owner_id": "t", "stem": "s"},
		{"owner_id": "t", "stem": "s", "type": "cloze"},
		{"owner_id": "t", "stem": "s", "type": "cloze", "answer": "x"},
		{"owner_id": "t", "stem": "s", "type": "writing", "answer": map[string]any{"rubric": 1}},
		{"owner_id": "t", "stem": "s", "level": "Z9", "answer": "A"},
		{"owner_id": 7, "stem": []any{"s"}, "difficulty_score": 1e9},
		{"owner_id": "t", "stem": "s", "tags": "not-a-list", "created_at": 12},
	}
	n := testNormalizer()
	for i, c := range candidates {
		it, err := n.Normalize(c)
		if err != nil {
			continue
		}
		assert.Truef(t, IsValidItem(it), "candidate %d produced invalid item %+v", i, it)
	}
}

func TestNormalizeBatch_Partition(t *testing.T) {
	candidates := []any{
		Record{"owner_id": "t", "stem": "Good ___", "type": "cloze", "answer": "one"},
		"not a record",
		Record{"stem": "no owner"},
		Record{"owner_id": "t", "stem": "Broken MCQ", "options": "abc", "answer": "Z"},
		nil,
	}
	res := testNormalizer().NormalizeBatch(candidates)

	assert.Len(t, res.Successful, 2)
	assert.Len(t, res.Failed, 3)
	assert.Equal(t, len(candidates), len(res.Successful)+len(res.Failed))
	assert.Equal(t, "not a record", res.Failed[0].Original)
	assert.Equal(t, ErrNotRecord.Error(), res.Failed[0].Error)
	assert.Contains(t, res.Failed[1].Error, "owner_id")
	assert.Equal(t, []string{res.Successful[1].ID}, res.Repaired)
}

func TestNormalizeBatch_RecoversFromPanics(t *testing.T) {
	calls := 0
	n := &Normalizer{
		Now: func() time.Time { return testTime },
		NewID: func() string {
			calls++
			if calls == 1 {
				panic("id source exhausted")
			}
			return "ok-id"
		},
	}
	res := n.NormalizeBatch([]any{
		Record{"owner_id": "t", "stem": "s", "answer": "A", "options": []any{"a", "b"}},
		Record{"owner_id": "t", "stem": "s", "answer": "A", "options": []any{"a", "b"}},
	})
	require.Len(t, res.Failed, 1)
	assert.Contains(t, res.Failed[0].Error, "id source exhausted")
	require.Len(t, res.Successful, 1)
	assert.Equal(t, "ok-id", res.Successful[0].ID)
}

func TestNormalizeBatch_Empty(t *testing.T) {
	res := NormalizeBatch(nil)
	assert.Empty(t, res.Successful)
	assert.Empty(t, res.Failed)
	assert.NotNil(t, res.Failed)
}

func TestNotRecordIsSentinel(t *testing.T) {
	_, err := Normalize(7)
	if !errors.Is(err, ErrNotRecord) {
		t.Fatalf("expected ErrNotRecord, got %v", err)
	}
}
