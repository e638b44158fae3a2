package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dispatchInput struct {
	RecipientID int64  `validate:"required,gt=0"`
	Title       string `validate:"required,max=255"`
	Priority    string `validate:"notif_priority"`
}

func TestV10Validator_Enum(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)
	require.NoError(t, v.RegisterEnum("notif_priority", []string{"critical", "high", "normal", "low"}))

	assert.NoError(t, v.Validate(dispatchInput{RecipientID: 1, Title: "t", Priority: "low"}))

	err = v.Validate(dispatchInput{Priority: "urgent"})
	var verr V10ValidationError
	require.True(t, errors.As(err, &verr))

	assert.Contains(t, verr.Values(), "recipient_id")
	assert.Contains(t, verr.Values(), "title")
	assert.Equal(t, "Priority must be one of 'critical', 'high', 'normal', 'low'", verr.Values()["priority"])
}
