package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	boosterrors "github.com/YuminosukeSato/boostflow/pkg/errors"
)

type closer struct {
	name  string
	order *[]string
	err   error
}

func (c *closer) Close() error {
	*c.order = append(*c.order, c.name)
	return c.err
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "json", FormatJSON.Extension())
	assert.Equal(t, "bin", FormatBinary.Extension())
	assert.Equal(t, "binary", FormatBinary.String())

	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"", FormatJSON, false},
		{"BIN", FormatBinary, false},
		{" binary ", FormatBinary, false},
		{"xml", FormatJSON, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Equal(t, boosterrors.InvalidParameter, boosterrors.StatusOf(err))
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	assert.Equal(t, FormatBinary, FormatForPath("/tmp/m_1.bin"))
	assert.Equal(t, FormatJSON, FormatForPath("/tmp/m_1.json"))
	assert.Equal(t, FormatJSON, FormatForPath("/tmp/model"))
}

func TestScopeReleasesInReverseOrder(t *testing.T) {
	var order []string
	var s Scope
	s.Add(&closer{name: "train", order: &order})
	s.Add(nil)
	s.Add(&closer{name: "booster", order: &order})
	s.Add(&closer{name: "test", order: &order})
	assert.Equal(t, 3, s.Len())

	require.NoError(t, s.Release())
	assert.Equal(t, []string{"test", "booster", "train"}, order)
	assert.Equal(t, 0, s.Len())

	// second release is a no-op
	require.NoError(t, s.Release())
	assert.Len(t, order, 3)
}

func TestCloseAllReturnsFirstError(t *testing.T) {
	var order []string
	first := errors.New("first")
	err := CloseAll(
		&closer{name: "a", order: &order, err: errors.New("later")},
		&closer{name: "b", order: &order, err: first},
		&closer{name: "c", order: &order},
	)
	assert.ErrorIs(t, err, first)
	assert.Equal(t, []string{"c", "b", "a"}, order)
}
