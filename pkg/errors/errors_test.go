package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"movie-note-core/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    errors.ErrorCode
		message string
		wantStr string
	}{
		{"template not found", errors.ErrTemplateNotFound, "no such template", "[TEMPLATE_NOT_FOUND] no such template"},
		{"invalid record", errors.ErrInvalidRecord, "missing name", "[INVALID_RECORD] missing name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := errors.New(tt.code, tt.message)
			assert.Equal(t, tt.code, err.Code)
			assert.NotNil(t, err.Details)
			assert.Equal(t, tt.wantStr, err.Error())
		})
	}
}

func TestWrap(t *testing.T) {
	base := stderrors.New("disk on fire")

	err := errors.Wrapf(base, errors.ErrTemplateRead, "reading %s", "movie.md")
	assert.Equal(t, "[TEMPLATE_READ] reading movie.md: disk on fire", err.Error())
	assert.ErrorIs(t, err, base)

	assert.Nil(t, errors.Wrap(nil, errors.ErrStore, "ignored"))
}

func TestCodeLookup(t *testing.T) {
	err := fmt.Errorf("outer: %w", errors.New(errors.ErrFormat, "bad layout").WithDetail("layout", "[YYYY"))

	assert.True(t, errors.IsErrorCode(err, errors.ErrFormat))
	assert.False(t, errors.IsErrorCode(err, errors.ErrStore))
	assert.Equal(t, errors.ErrFormat, errors.GetErrorCode(err))
	assert.Equal(t, errors.ErrUnknown, errors.GetErrorCode(stderrors.New("plain")))
	assert.True(t, stderrors.Is(err, errors.New(errors.ErrFormat, "other message")))
}
