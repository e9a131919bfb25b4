package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MacJediWizard/i18n/pkg/models"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		status int
	}{
		{"bad request", BadRequest("x"), http.StatusBadRequest},
		{"unauthorized", Unauthorized("x"), http.StatusUnauthorized},
		{"forbidden", Forbidden("x"), http.StatusForbidden},
		{"not found", NotFound("x"), http.StatusNotFound},
		{"conflict", Conflict("x"), http.StatusConflict},
		{"formatted", Newf(http.StatusTeapot, "%d", 1), http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, KindHTTP, tt.err.Kind)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Empty(t, tt.err.Code)
		})
	}
}

func TestWithCodeCopies(t *testing.T) {
	base := NotFound("locale missing")
	coded := base.WithCode(models.CodeConflict)

	assert.Empty(t, base.Code)
	assert.Equal(t, models.CodeConflict, coded.Code)
	assert.Equal(t, base.Message, coded.Message)
}

func TestClassify(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, Classify(nil))
	})

	t.Run("plain error is unclassified", func(t *testing.T) {
		cause := errors.New("pq: connection reset")
		got := Classify(cause)
		assert.Equal(t, KindUnclassified, got.Kind)
		assert.ErrorIs(t, got, cause)
	})

	t.Run("wrapped api error is found", func(t *testing.T) {
		inner := Forbidden("nope")
		got := Classify(fmt.Errorf("handler: %w", inner))
		assert.Same(t, inner, got)
	})

	t.Run("raw json errors stay unclassified", func(t *testing.T) {
		var v map[string]any
		err := json.Unmarshal([]byte("{"), &v)
		require.Error(t, err)
		assert.Equal(t, KindUnclassified, Classify(err).Kind)
	})
}

type pageQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
	Locale   string `json:"locale" binding:"required"`
}

func TestClassify_ValidatorErrors(t *testing.T) {
	UseWireFieldNames()

	err := binding.Validator.ValidateStruct(&pageQuery{Page: 0, PageSize: 500})
	require.Error(t, err)

	got := Classify(err)
	require.Equal(t, KindValidation, got.Kind)
	assert.Equal(t, http.StatusUnprocessableEntity, got.Status)

	messages := got.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "pageSize must be at most 100", messages[0])
	assert.Equal(t, "locale is required", messages[1])
	assert.Equal(t, "pageSize", got.Violations[0].Field)
}

func TestFromBinding(t *testing.T) {
	t.Run("number parse failure", func(t *testing.T) {
		_, parseErr := strconv.Atoi("abc")
		got := FromBinding(parseErr)
		assert.Equal(t, KindValidation, got.Kind)
		assert.Equal(t, []string{`"abc" is not a valid number`}, got.Messages())
	})

	t.Run("malformed json", func(t *testing.T) {
		var v map[string]any
		err := json.NewDecoder(strings.NewReader("{\"a\":")).Decode(&v)
		got := FromBinding(err)
		assert.Equal(t, KindHTTP, got.Kind)
		assert.Equal(t, http.StatusBadRequest, got.Status)
	})

	t.Run("wrong json type", func(t *testing.T) {
		var v struct {
			Page int `json:"page"`
		}
		err := json.Unmarshal([]byte(`{"page":"one"}`), &v)
		got := FromBinding(err)
		assert.Equal(t, KindValidation, got.Kind)
		assert.Equal(t, "page", got.Violations[0].Field)
	})

	t.Run("body too large", func(t *testing.T) {
		got := FromBinding(fmt.Errorf("read: %w", &http.MaxBytesError{Limit: 10}))
		assert.Equal(t, http.StatusRequestEntityTooLarge, got.Status)
	})

	t.Run("unknown error is a bad request", func(t *testing.T) {
		got := FromBinding(errors.New("weird"))
		assert.Equal(t, http.StatusBadRequest, got.Status)
	})

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, FromBinding(nil))
	})
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "http 404: missing", NotFound("missing").Error())
	assert.Equal(t, "validation: 2 violation(s)", ValidationMessages("a", "b").Error())
	assert.Equal(t, "unclassified: boom", Internal(errors.New("boom")).Error())
}
