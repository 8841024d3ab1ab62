package core

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsResourceName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{name: "syllabus.pdf", want: true},
		{name: "course notes #1.txt", want: true},
		{name: ".hidden", want: true},
		{name: "résumé.pdf", want: true},
		{name: strings.Repeat("a", 255), want: true},
		{name: "", want: false},
		{name: ".", want: false},
		{name: "..", want: false},
		{name: "a/b.pdf", want: false},
		{name: `a\b.pdf`, want: false},
		{name: "a\x00b", want: false},
		{name: strings.Repeat("a", 256), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsResourceName(tt.name))
		})
	}
}

func TestValidateVar(t *testing.T) {
	validate, translator := NewValidator()

	tests := []struct {
		name    string
		value   string
		wantErr string
	}{
		{name: "valid", value: "notes.txt"},
		{name: "required", value: "", wantErr: "name: this field is required"},
		{name: "separator", value: "a/b", wantErr: "name: must be a plain file name (no path separators)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVar(validate, translator, "name", tt.value, "required,resname")
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.wantErr, vErr.Error())
		})
	}
}

func TestTranslateValidationErrors(t *testing.T) {
	validate, translator := NewValidator()

	type form struct {
		Title string `json:"title" validate:"required"`
		File  string `json:"file" validate:"required,resname"`
	}

	err := TranslateValidationErrors(validate.Struct(form{File: "../x"}), translator)
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.ElementsMatch(t, []FieldError{
		{Field: "title", Error: "this field is required"},
		{Field: "file", Error: "must be a plain file name (no path separators)"},
	}, vErr.Fields)

	other := errors.New("boom")
	assert.Equal(t, other, TranslateValidationErrors(other, translator))
}

func TestShutdownError(t *testing.T) {
	err := NewShutdownError("integrity issue")
	assert.True(t, IsShutdown(err))
	assert.True(t, IsShutdown(errors.Wrap(err, "handling request")))
	assert.False(t, IsShutdown(errors.New("integrity issue")))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", FirstNonEmpty("", "  ", " b ", "c"))
	assert.Equal(t, "", FirstNonEmpty())
}
