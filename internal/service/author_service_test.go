package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magazinehq/magazine-api/internal/models"
	appErrors "github.com/magazinehq/magazine-api/pkg/errors"
)

func (f *fakeUserRepo) List(context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserRepo) ListByRole(_ context.Context, roleName string) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		if u.Active && u.HasRole(roleName) {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	f.users[user.Username] = user
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	for username, u := range f.users {
		if u.ID == id {
			delete(f.users, username)
		}
	}
	return nil
}

func (f *fakeUserRepo) AddRole(_ context.Context, userID, roleName string) error {
	for _, u := range f.users {
		if u.ID == userID {
			u.Roles = append(u.Roles, roleName)
		}
	}
	return nil
}

func newAuthorServiceForTest(users *fakeUserRepo) (*AuthorService, *fakeSessions) {
	sessions := newFakeSessions(users)
	return NewAuthorService(users, NewGuard(users), sessions, nil, nil, nil), sessions
}

func TestUpdateProfileOwnerOnly(t *testing.T) {
	owner := activeUser(t, "margaret", "pw123456")
	intruder := activeUser(t, "ned", "pw123456")
	users := newFakeUserRepo(owner, intruder)
	svc, _ := newAuthorServiceForTest(users)

	req := UpdateProfileRequest{FirstName: "Margaret", LastName: "Atkins", Description: "culture desk"}

	_, err := svc.UpdateProfile(context.Background(), "ned", "margaret", req, nil, "")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrAccessDenied))

	updated, err := svc.UpdateProfile(context.Background(), "margaret", "margaret", req, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "Margaret", updated.FirstName)
	assert.Equal(t, "culture desk", updated.Description)
}

func TestMakeAuthorGrantsRoleOnce(t *testing.T) {
	user := activeUser(t, "margaret", "pw123456")
	users := newFakeUserRepo(user)
	svc, _ := newAuthorServiceForTest(users)

	promoted, err := svc.MakeAuthor(context.Background(), "margaret")
	require.NoError(t, err)
	assert.True(t, promoted.HasRole(models.RoleAuthor))

	// Granting again is a no-op, not a duplicate.
	promoted, err = svc.MakeAuthor(context.Background(), "margaret")
	require.NoError(t, err)
	count := 0
	for _, role := range promoted.Roles {
		if role == models.RoleAuthor {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestDeactivateRevokesSessions(t *testing.T) {
	user := activeUser(t, "margaret", "pw123456")
	users := newFakeUserRepo(user)
	svc, sessions := newAuthorServiceForTest(users)

	_, err := sessions.Create(context.Background(), user.ID)
	require.NoError(t, err)

	deactivated, err := svc.Deactivate(context.Background(), "margaret", "margaret")
	require.NoError(t, err)
	assert.False(t, deactivated.Active)
	assert.Empty(t, sessions.byToken)
}

func TestDeleteUserRemovesAccountAndSessions(t *testing.T) {
	user := activeUser(t, "margaret", "pw123456")
	users := newFakeUserRepo(user)
	svc, sessions := newAuthorServiceForTest(users)

	_, err := sessions.Create(context.Background(), user.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "margaret"))
	assert.Empty(t, users.users)
	assert.Empty(t, sessions.byToken)
}

func TestListAuthorsFiltersByRole(t *testing.T) {
	author := activeUser(t, "margaret", "pw123456")
	author.Roles = append(author.Roles, models.RoleAuthor)
	reader := activeUser(t, "ned", "pw123456")
	users := newFakeUserRepo(author, reader)
	svc, _ := newAuthorServiceForTest(users)

	authors, err := svc.ListAuthors(context.Background())
	require.NoError(t, err)
	require.Len(t, authors, 1)
	assert.Equal(t, "margaret", authors[0].Username)
}
