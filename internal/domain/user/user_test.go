package user_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/userlist/internal/domain/errs"
	"github.com/lllypuk/userlist/internal/domain/user"
)

func TestNewPlaceholder(t *testing.T) {
	t.Run("uses given name", func(t *testing.T) {
		rec := user.NewPlaceholder("Ann")

		assert.Equal(t, user.UnsavedID, rec.ID)
		assert.Equal(t, "Ann", rec.Name)
		assert.False(t, rec.IsSaved())
	})

	t.Run("falls back to default name", func(t *testing.T) {
		rec := user.NewPlaceholder("   ")

		assert.Equal(t, user.DefaultName, rec.Name)
	})
}

func TestRecord_Renamed(t *testing.T) {
	original := user.Record{ID: 3, Name: "Bo"}

	t.Run("explicit name", func(t *testing.T) {
		renamed := original.Renamed("Bob")

		assert.Equal(t, user.Record{ID: 3, Name: "Bob"}, renamed)
		assert.Equal(t, "Bo", original.Name)
	})

	t.Run("empty name appends marker", func(t *testing.T) {
		renamed := original.Renamed("")

		assert.Equal(t, "Bo"+user.UpdateMarker, renamed.Name)
		assert.Equal(t, 3, renamed.ID)
	})
}

func TestRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rec     user.Record
		wantErr bool
	}{
		{"saved record", user.Record{ID: 1, Name: "Ann"}, false},
		{"placeholder", user.Record{ID: 0, Name: "Ann"}, false},
		{"negative id", user.Record{ID: -1, Name: "Ann"}, true},
		{"blank name", user.Record{ID: 1, Name: " "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, errs.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
		})
	}
}
