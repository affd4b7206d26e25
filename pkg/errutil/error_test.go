package errutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConstructorsKeepCause(t *testing.T) {
	cause := errors.New("unique constraint violated")

	err := Conflict("account already linked", cause)

	var be BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, StatusConflict, be.Code)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "unique constraint violated")
}

func TestConstructorsNilCause(t *testing.T) {
	err := BadRequest("amount must be > 0", nil)

	var be BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, StatusBadRequest, be.Code)
	require.NoError(t, be.Unwrap())
	require.Equal(t, "[BAD_REQUEST] amount must be > 0", err.Error())
}

func TestCauseArgumentWinsOverOption(t *testing.T) {
	cause := errors.New("cause")
	other := errors.New("other")

	// The cause argument is applied after the options, so it wins.
	err := Internal("boom", cause, WithErr(other))
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, other)
}

func TestWithDetailsInJSONBody(t *testing.T) {
	err := NotFound("channel not mapped", nil, WithDetails(Detail{Field: "channel_id", Message: "unknown"}))

	var be BaseError
	require.ErrorAs(t, err, &be)
	require.Len(t, be.Details, 1)
	require.Equal(t, "channel_id", be.Details[0].Field)
}
