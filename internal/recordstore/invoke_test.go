package recordstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sufield/evault/internal/domain"
	"github.com/sufield/evault/internal/recordstore"
)

func TestInvoke(t *testing.T) {
	s, _ := newStore()

	out, err := recordstore.Invoke(s, recordstore.FnExists, []string{"1001"})
	require.NoError(t, err)
	assert.Equal(t, "false", string(out))

	out, err = recordstore.Invoke(s, recordstore.FnCreate, []string{"1001", "lawyer 1001 value"})
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = recordstore.Invoke(s, recordstore.FnRead, []string{"1001"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"lawyer 1001 value"}`, string(out))

	out, err = recordstore.Invoke(s, recordstore.FnCount, nil)
	require.NoError(t, err)
	assert.Equal(t, "1", string(out))

	_, err = recordstore.Invoke(s, recordstore.FnUpdate, []string{"1001", "new value"})
	require.NoError(t, err)

	_, err = recordstore.Invoke(s, recordstore.FnDelete, []string{"1001"})
	require.NoError(t, err)

	_, err = recordstore.Invoke(s, recordstore.FnRead, []string{"1001"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvoke_Errors(t *testing.T) {
	s, _ := newStore()

	tests := []struct {
		name string
		fn   string
		args []string
		want error
	}{
		{name: "unknown function", fn: "getStats", want: recordstore.ErrUnknownFunction},
		{name: "missing value", fn: recordstore.FnCreate, args: []string{"1001"}, want: recordstore.ErrBadArguments},
		{name: "extra argument", fn: recordstore.FnRead, args: []string{"1", "2"}, want: recordstore.ErrBadArguments},
		{name: "count takes none", fn: recordstore.FnCount, args: []string{"x"}, want: recordstore.ErrBadArguments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := recordstore.Invoke(s, tt.fn, tt.args)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestIsSubmit(t *testing.T) {
	assert.True(t, recordstore.IsSubmit(recordstore.FnCreate))
	assert.True(t, recordstore.IsSubmit(recordstore.FnUpdate))
	assert.True(t, recordstore.IsSubmit(recordstore.FnDelete))
	assert.False(t, recordstore.IsSubmit(recordstore.FnRead))
	assert.False(t, recordstore.IsSubmit(recordstore.FnExists))
	assert.False(t, recordstore.IsSubmit(recordstore.FnCount))
}
