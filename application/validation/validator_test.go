package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iselfietest/cardio-sdk/application/validation"
	"github.com/iselfietest/cardio-sdk/domain/entities"
	sdkerrors "github.com/iselfietest/cardio-sdk/domain/errors"
)

func TestConfigValidator_Validate(t *testing.T) {
	validator, err := validation.NewConfigValidator()
	require.NoError(t, err)

	t.Run("valid config", func(t *testing.T) {
		res, err := validator.Validate([]byte(`{
			"apiKey": "key-123",
			"environment": "dev",
			"options": {"isDarkMode": false, "language": "fr"},
			"styles": {"buttonColor": "#000"}
		}`))
		require.NoError(t, err)
		assert.True(t, res.Valid)
		assert.Empty(t, res.Issues)
		assert.NoError(t, res.Err())
	})

	t.Run("empty object", func(t *testing.T) {
		res, err := validator.Validate([]byte(`{}`))
		require.NoError(t, err)
		assert.True(t, res.Valid)
	})

	t.Run("wrong option type", func(t *testing.T) {
		res, err := validator.Validate([]byte(`{"apiKey":"k","options":{"isDarkMode":"yes"}}`))
		require.NoError(t, err)
		assert.False(t, res.Valid)
		require.NotEmpty(t, res.Issues)
		assert.Equal(t, "options.isDarkMode", res.Issues[0].Field)

		cerr := res.Err()
		assert.Equal(t, entities.CodeConfigInvalid, sdkerrors.CodeOf(cerr))
	})

	t.Run("unknown environment", func(t *testing.T) {
		res, err := validator.Validate([]byte(`{"apiKey":"k","environment":"staging"}`))
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Equal(t, "environment", res.Issues[0].Field)
	})

	t.Run("malformed document", func(t *testing.T) {
		_, err := validator.Validate([]byte(`{"apiKey":`))
		assert.Equal(t, entities.CodeConfigInvalid, sdkerrors.CodeOf(err))
	})
}
