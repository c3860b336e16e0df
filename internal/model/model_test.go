package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sampleapi/users-service/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestUserPatch_Apply(t *testing.T) {
	base := model.User{ID: 5, UserName: "a@x.com", Email: "a@x.com", Name: "Alice", TenantID: 2}

	cases := []struct {
		name  string
		patch model.UserPatch
		want  model.User
	}{
		{"empty patch keeps everything", model.UserPatch{}, base},
		{"name only", model.UserPatch{Name: ptr("X")}, model.User{ID: 5, UserName: "a@x.com", Email: "a@x.com", Name: "X", TenantID: 2}},
		{"email normalised", model.UserPatch{Email: ptr("  B@X.com ")}, model.User{ID: 5, UserName: "a@x.com", Email: "b@x.com", Name: "Alice", TenantID: 2}},
		{"explicit empty string overwrites", model.UserPatch{Name: ptr("")}, model.User{ID: 5, UserName: "a@x.com", Email: "a@x.com", Name: "", TenantID: 2}},
		{"tenant and username", model.UserPatch{TenantID: ptr(int64(7)), UserName: ptr("alice")}, model.User{ID: 5, UserName: "alice", Email: "a@x.com", Name: "Alice", TenantID: 7}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := base
			tc.patch.Apply(&u)
			assert.Equal(t, tc.want, u)
		})
	}
}

func TestUserPatch_Empty(t *testing.T) {
	assert.True(t, model.UserPatch{}.Empty())
	assert.False(t, model.UserPatch{Name: ptr("n")}.Empty())
}

func TestUser_WithIDDoesNotMutate(t *testing.T) {
	u := model.User{Name: "n"}
	v := u.WithID(9)
	assert.Equal(t, int64(0), u.ID)
	assert.Equal(t, int64(9), v.EntityID())
}
