package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statementError struct {
	Batch int
}

func (e *statementError) Error() string { return "batch rejected" }

func TestNew(t *testing.T) {
	err := New("key vault name is empty")

	require.Error(t, err)
	assert.Equal(t, "key vault name is empty", err.Error())
	assert.NotSame(t, err, New("key vault name is empty"))
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wrap     func(error) error
		expected string
	}{
		{
			name:     "Wrap",
			err:      ErrUnavailable,
			wrap:     func(err error) error { return Wrap(err, "wrap failed") },
			expected: "wrap failed: unavailable",
		},
		{
			name:     "Wrapf",
			err:      ErrInvalidInput,
			wrap:     func(err error) error { return Wrapf(err, "invalid identifier %q", "Pat]ients") },
			expected: `invalid identifier "Pat]ients": invalid input`,
		},
		{
			name:     "Nested",
			err:      Wrap(ErrUnauthorized, "key vault authentication failed"),
			wrap:     func(err error) error { return Wrap(err, "creating_master_key") },
			expected: "creating_master_key: key vault authentication failed: unauthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := tt.wrap(tt.err)

			assert.EqualError(t, wrapped, tt.expected)
			assert.True(t, Is(wrapped, tt.err))
		})
	}

	t.Run("Nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "context"))
		assert.NoError(t, Wrapf(nil, "context %d", 1))
	})
}

func TestIs_Taxonomy(t *testing.T) {
	signing := Wrap(ErrUnavailable, "master key metadata signing failed")
	wrapped := Wrap(signing, "creating_master_key")

	assert.True(t, Is(wrapped, signing))
	assert.True(t, Is(wrapped, ErrUnavailable))
	assert.False(t, Is(wrapped, ErrUnauthorized))
	assert.False(t, Is(wrapped, ErrInvalidInput))
}

func TestAs(t *testing.T) {
	wrapped := Wrap(&statementError{Batch: 3}, "creating_schema")

	var target *statementError
	require.True(t, As(wrapped, &target))
	assert.Equal(t, 3, target.Batch)
}

func TestSentinels(t *testing.T) {
	sentinels := map[error]string{
		ErrInvalidInput: "invalid input",
		ErrUnauthorized: "unauthorized",
		ErrUnavailable:  "unavailable",
	}

	for err, text := range sentinels {
		assert.EqualError(t, err, text)
		for other := range sentinels {
			if other != err {
				assert.False(t, errors.Is(err, other))
			}
		}
	}
}

func TestJoin(t *testing.T) {
	cause := Wrap(ErrUnavailable, "statement execution failed")
	cleanup := New("drop table failed")

	joined := Join(cause, nil, cleanup)

	assert.True(t, Is(joined, ErrUnavailable))
	assert.True(t, Is(joined, cleanup))
	assert.NoError(t, Join(nil, nil))
}
