package services

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/yukikurage/taskboard-api/internal/models"
)

type UserServiceTestSuite struct {
	serviceSuite
}

func (s *UserServiceTestSuite) TestUpdateProfile() {
	actor := s.createUser("alice")

	name, avatar := "  alice2 ", "https://example.com/a.png"
	updated, err := s.users.UpdateProfile(s.ctx, actor, UpdateProfileInput{Username: &name, Avatar: &avatar})
	s.Require().NoError(err)
	s.Equal("alice2", updated.Username)
	s.Equal(avatar, updated.Avatar)
	s.Equal(models.RoleAdmin, updated.Role)

	short := "ab"
	_, err = s.users.UpdateProfile(s.ctx, actor, UpdateProfileInput{Username: &short})
	s.ErrorIs(err, ErrInvalidUsername)
}

func (s *UserServiceTestSuite) TestIdentityAccountCanAddPassword() {
	subject := "google-9"
	user := &models.User{Username: "ext", Email: "ext@example.com", ExternalIdentityID: &subject}
	s.Require().NoError(s.userRepo.CreateWithBootstrapRole(s.ctx, user))

	weak := "short"
	_, err := s.users.UpdateProfile(s.ctx, user.Actor(), UpdateProfileInput{Password: &weak})
	s.ErrorIs(err, ErrPasswordTooShort)

	strong := "longenough"
	_, err = s.users.UpdateProfile(s.ctx, user.Actor(), UpdateProfileInput{Password: &strong})
	s.Require().NoError(err)

	session, err := s.auth.Login(s.ctx, LoginInput{Email: "ext@example.com", Password: "longenough"})
	s.Require().NoError(err)
	s.Equal(user.ID, session.User.ID)
}

func (s *UserServiceTestSuite) TestProfileOfDeletedUser() {
	_, err := s.users.Profile(s.ctx, models.Actor{ID: 999, Role: models.RoleUser})
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *UserServiceTestSuite) TestDirectory() {
	s.createUser("carol")
	s.createUser("alice")

	users, err := s.users.Directory(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 2)
	s.Equal("alice", users[0].Username)
	s.Equal("alice@example.com", users[0].Email)
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
