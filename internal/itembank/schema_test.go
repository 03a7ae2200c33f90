package itembank

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateImportDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    int
		wantErr bool
	}{
		{"bare array", `[{"stem": "a"}, {"stem": "b"}]`, 2, false},
		{"wrapped", `{"items": [{"stem": "a"}]}`, 1, false},
		{"empty array", `[]`, 0, false},
		{"array of strings", `["a", "b"]`, 0, true},
		{"object without items", `{"stem": "a"}`, 0, true},
		{"items not an array", `{"items": {"stem": "a"}}`, 0, true},
		{"not JSON", `{{`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateImportDocument([]byte(tt.doc))
			if tt.wantErr {
				var ierr *ImportError
				require.Error(t, err)
				assert.True(t, errors.As(err, &ierr))
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestValidateImportDocument_FeedsBatch(t *testing.T) {
	cands, err := ValidateImportDocument([]byte(`[
		{"owner_id": "t1", "type": "cloze", "stem": "He ___ tall.", "answer": "is", "difficulty_score": 0.1},
		{"owner_id": "t1", "type": "writing_task", "stem": "Describe your town.", "answer": "open"},
		{"type": "cloze", "stem": "missing owner ___", "answer": "x"}
	]`))
	require.NoError(t, err)

	res := testNormalizer().NormalizeBatch(cands)
	assert.Len(t, res.Successful, 2)
	assert.Len(t, res.Failed, 1)
}
