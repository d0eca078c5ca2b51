package errors

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseError(t *testing.T) {
	err := NewParseError("gimlet.yaml", 4, io.ErrUnexpectedEOF)
	require.EqualError(t, err, "parse error: gimlet.yaml:4: unexpected EOF")
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	err = NewParseError("gimlet.yaml", 0, io.ErrUnexpectedEOF)
	require.EqualError(t, err, "parse error: gimlet.yaml: unexpected EOF")

	var pe *ParseError
	require.True(t, stderrors.As(err, &pe))
	require.Equal(t, "gimlet.yaml", pe.Path)
}

func TestValidationError(t *testing.T) {
	require.EqualError(t, NewValidationError("drill.max_deviation", "must be positive", nil),
		"validation error: drill.max_deviation: must be positive")
	require.EqualError(t, NewValidationError("", "empty", nil), "validation error: empty")

	cause := stderrors.New("cause")
	require.ErrorIs(t, NewValidationError("f", "m", cause), cause)
}

func TestSetupError(t *testing.T) {
	err := NewSetupError("drill", "no drill bit configured", nil)
	require.EqualError(t, err, "setup error: drill: no drill bit configured")

	cause := stderrors.New("tip missing")
	err = NewSetupError("drill", "invalid bit", cause)
	require.EqualError(t, err, "setup error: drill: invalid bit: tip missing")
	require.ErrorIs(t, err, cause)

	var se *SetupError
	require.True(t, stderrors.As(err, &se))
	require.Equal(t, "drill", se.Component)
}

func TestNilReceivers(t *testing.T) {
	var pe *ParseError
	var ve *ValidationError
	var se *SetupError
	require.Equal(t, "", pe.Error())
	require.Equal(t, "", ve.Error())
	require.Equal(t, "", se.Error())
	require.Nil(t, pe.Unwrap())
	require.Nil(t, ve.Unwrap())
	require.Nil(t, se.Unwrap())
}
