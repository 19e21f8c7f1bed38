package user_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lllypuk/userlist/internal/domain/user"
)

func sampleList() []user.Record {
	return []user.Record{{ID: 1, Name: "Ann"}, {ID: 2, Name: "Bo"}}
}

func TestClone(t *testing.T) {
	list := sampleList()
	clone := user.Clone(list)
	clone[0].Name = "changed"

	assert.Equal(t, "Ann", list[0].Name)
	assert.NotNil(t, user.Clone(nil))
	assert.Empty(t, user.Clone(nil))
}

func TestPrepend(t *testing.T) {
	list := sampleList()

	got := user.Prepend(list, user.Record{ID: 0, Name: "New"})

	assert.Equal(t, []user.Record{{ID: 0, Name: "New"}, {ID: 1, Name: "Ann"}, {ID: 2, Name: "Bo"}}, got)
	assert.Len(t, list, 2)
}

func TestFind(t *testing.T) {
	rec, ok := user.Find(sampleList(), 2)
	assert.True(t, ok)
	assert.Equal(t, "Bo", rec.Name)

	_, ok = user.Find(sampleList(), 42)
	assert.False(t, ok)
	assert.Equal(t, -1, user.Index(nil, 1))
}

func TestInsert(t *testing.T) {
	bo := user.Record{ID: 2, Name: "Bo"}
	tests := []struct {
		name  string
		list  []user.Record
		index int
		want  []user.Record
	}{
		{"middle", []user.Record{{ID: 1, Name: "Ann"}, {ID: 3, Name: "Cy"}}, 1,
			[]user.Record{{ID: 1, Name: "Ann"}, bo, {ID: 3, Name: "Cy"}}},
		{"past the end appends", []user.Record{{ID: 1, Name: "Ann"}}, 5,
			[]user.Record{{ID: 1, Name: "Ann"}, bo}},
		{"negative prepends", []user.Record{{ID: 1, Name: "Ann"}}, -1,
			[]user.Record{bo, {ID: 1, Name: "Ann"}}},
		{"empty list", nil, 3, []user.Record{bo}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := user.Clone(tt.list)

			got := user.Insert(tt.list, tt.index, bo)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, before, user.Clone(tt.list))
		})
	}
}

func TestReplace(t *testing.T) {
	list := sampleList()

	got := user.Replace(list, 2, user.Record{ID: 2, Name: "Bob"})

	assert.Equal(t, []user.Record{{ID: 1, Name: "Ann"}, {ID: 2, Name: "Bob"}}, got)
	assert.Equal(t, "Bo", list[1].Name)
	assert.Equal(t, list, user.Replace(list, 9, user.Record{ID: 9, Name: "X"}))
}

func TestReplaceMatch(t *testing.T) {
	list := []user.Record{{ID: 0, Name: "B"}, {ID: 0, Name: "A"}, {ID: 1, Name: "Ann"}}

	got := user.ReplaceMatch(list, user.Record{ID: 0, Name: "A"}, user.Record{ID: 11, Name: "A"})

	assert.Equal(t, []user.Record{{ID: 0, Name: "B"}, {ID: 11, Name: "A"}, {ID: 1, Name: "Ann"}}, got)
}

func TestRemove(t *testing.T) {
	list := sampleList()

	got := user.Remove(list, 1)

	assert.Equal(t, []user.Record{{ID: 2, Name: "Bo"}}, got)
	assert.Len(t, list, 2)
	assert.Equal(t, list, user.Remove(list, 7))
}

func TestRemoveMatch(t *testing.T) {
	list := []user.Record{{ID: 0, Name: "A"}, {ID: 0, Name: "A"}, {ID: 1, Name: "Ann"}}

	got := user.RemoveMatch(list, user.Record{ID: 0, Name: "A"})

	assert.Equal(t, []user.Record{{ID: 0, Name: "A"}, {ID: 1, Name: "Ann"}}, got)
}
