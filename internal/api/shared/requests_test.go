package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodeTarget struct {
	Mode   string   `json:"mode"`
	Topics []string `json:"topics"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    decodeTarget
		wantErr error
		errText string
	}{
		{
			name: "valid",
			body: `{"mode": "quick", "topics": ["go"]}`,
			want: decodeTarget{Mode: "quick", Topics: []string{"go"}},
		},
		{
			name:    "empty body",
			body:    "",
			wantErr: ErrEmptyBody,
		},
		{
			name:    "malformed",
			body:    `{"mode": "quick",}`,
			errText: "invalid character",
		},
		{
			name:    "unknown field",
			body:    `{"mode": "quick", "user": "mallory"}`,
			errText: "unknown field",
		},
		{
			name:    "trailing data",
			body:    `{"mode": "quick"} {"mode": "mixed"}`,
			errText: "unexpected data",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tc.body))

			var got decodeTarget
			err := DecodeJSON(req, &got)

			switch {
			case tc.wantErr != nil:
				assert.ErrorIs(t, err, tc.wantErr)
			case tc.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errText)
			default:
				require.NoError(t, err)
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

type taggedRequest struct {
	Answer string `validate:"required"`
}

type selfValidating struct{ err error }

func (s selfValidating) Validate() error { return s.err }

func TestValidateRequest(t *testing.T) {
	t.Run("tags pass", func(t *testing.T) {
		assert.NoError(t, ValidateRequest(&taggedRequest{Answer: "42"}))
	})

	t.Run("tags fail", func(t *testing.T) {
		err := ValidateRequest(&taggedRequest{})
		var verrs validator.ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.Equal(t, "required", verrs[0].Tag())
	})

	t.Run("custom validator", func(t *testing.T) {
		boom := errors.New("boom")
		assert.ErrorIs(t, ValidateRequest(selfValidating{err: boom}), boom)
		assert.NoError(t, ValidateRequest(selfValidating{}))
	})
}
