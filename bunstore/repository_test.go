package bunstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/edukit/registrar"
	"github.com/edukit/registrar/bunstore"
	"github.com/edukit/registrar/schema"
)

type BunSuite struct {
	suite.Suite
	ctx      context.Context
	store    *bunstore.Store
	users    *bunstore.Repository[schema.User]
	sessions *bunstore.Repository[schema.Session]
}

func TestBunSuite(t *testing.T) {
	suite.Run(t, new(BunSuite))
}

func (s *BunSuite) SetupTest() {
	s.ctx = context.Background()

	store, err := bunstore.Open(registrar.Config{
		Driver:   registrar.DialectSQLite,
		Database: ":memory:",
	})
	s.Require().NoError(err)
	s.store = store

	ddl := []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			username TEXT NOT NULL UNIQUE,
			password TEXT,
			role_id TEXT,
			reset_password_required INTEGER NOT NULL DEFAULT 0,
			picture TEXT
		)`,
		`CREATE TABLE sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users (id),
			expires_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range ddl {
		_, err := store.Exec(s.ctx, stmt)
		s.Require().NoError(err)
	}

	s.users = bunstore.NewRepository[schema.User](store)
	s.sessions = bunstore.NewRepository[schema.Session](store)
}

func (s *BunSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func (s *BunSuite) newUser(email, username string) *schema.User {
	user := &schema.User{Email: email, Username: username}
	s.Require().NoError(s.users.Create(s.ctx, user))
	return user
}

func (s *BunSuite) TestCreateAssignsID() {
	user := s.newUser("ama@school.edu", "ama")
	s.NotEmpty(user.ID)

	found, err := s.users.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal("ama@school.edu", found.Email)
}

func (s *BunSuite) TestFindByIDNotFound() {
	_, err := s.users.FindByID(s.ctx, "no-such-id")
	s.Require().Error(err)
	s.True(registrar.IsNotFound(err))
}

func (s *BunSuite) TestDuplicateEmail() {
	s.newUser("kofi@school.edu", "kofi")

	err := s.users.Create(s.ctx, &schema.User{Email: "kofi@school.edu", Username: "other"})
	s.Require().Error(err)
	s.True(registrar.IsDuplicate(err))
}

func (s *BunSuite) TestCreateManySkipDuplicates() {
	s.newUser("taken@school.edu", "taken")

	written, err := s.users.CreateMany(s.ctx, []*schema.User{
		{Email: "new1@school.edu", Username: "new1"},
		{Email: "taken@school.edu", Username: "taken"},
		{Email: "new2@school.edu", Username: "new2"},
	}, registrar.SkipDuplicates())
	s.Require().NoError(err)
	s.Equal(int64(2), written)

	total, err := s.users.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(3), total)
}

func (s *BunSuite) TestUpdate() {
	user := s.newUser("efua@school.edu", "efua")
	user.ResetPasswordRequired = true
	s.Require().NoError(s.users.Update(s.ctx, user))

	found, err := s.users.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.True(found.ResetPasswordRequired)

	ghost := &schema.User{ID: "no-such-id", Email: "g@school.edu", Username: "ghost"}
	s.True(registrar.IsNotFound(s.users.Update(s.ctx, ghost)))
}

func (s *BunSuite) TestUpdateFieldsAndUpdateMany() {
	user := s.newUser("adjoa@school.edu", "adjoa")

	err := s.users.UpdateFields(s.ctx, user.ID, map[string]interface{}{"username": "adjoa2"})
	s.Require().NoError(err)

	found, err := s.users.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal("adjoa2", found.Username)

	s.newUser("b@school.edu", "b")
	count, err := s.users.UpdateMany(s.ctx,
		map[string]interface{}{"reset_password_required": true},
		registrar.WhereLike("email", "%@school.edu"))
	s.Require().NoError(err)
	s.Equal(int64(2), count)
}

func (s *BunSuite) TestUpdateManyLimit() {
	s.newUser("l1@school.edu", "l1")
	s.newUser("l2@school.edu", "l2")
	s.newUser("l3@school.edu", "l3")

	count, err := s.users.UpdateMany(s.ctx,
		map[string]interface{}{"reset_password_required": true},
		registrar.OrderBy("username", registrar.OrderAsc),
		registrar.Limit(2))
	s.Require().NoError(err)
	s.Equal(int64(2), count)

	// The last user in order stays untouched.
	untouched, err := s.users.FindOne(s.ctx,
		registrar.Where("username", registrar.OpEqual, "l3"))
	s.Require().NoError(err)
	s.False(untouched.ResetPasswordRequired)
}

func (s *BunSuite) TestDeleteManyLimit() {
	s.newUser("d1@school.edu", "d1")
	s.newUser("d2@school.edu", "d2")
	s.newUser("d3@school.edu", "d3")

	count, err := s.users.DeleteMany(s.ctx,
		registrar.OrderBy("username", registrar.OrderAsc),
		registrar.Limit(2))
	s.Require().NoError(err)
	s.Equal(int64(2), count)

	remaining, err := s.users.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(remaining, 1)
	s.Equal("d3", remaining[0].Username)
}

func (s *BunSuite) TestUpsert() {
	user := &schema.User{Email: "up@school.edu", Username: "up"}
	s.Require().NoError(s.users.Upsert(s.ctx, user, []string{"email"}, []string{"username"}))

	clash := &schema.User{Email: "up@school.edu", Username: "up2"}
	s.Require().NoError(s.users.Upsert(s.ctx, clash, []string{"email"}, []string{"username"}))

	total, err := s.users.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), total)

	found, err := s.users.FindOne(s.ctx, registrar.Where("email", registrar.OpEqual, "up@school.edu"))
	s.Require().NoError(err)
	s.Equal("up2", found.Username)
}

func (s *BunSuite) TestDelete() {
	user := s.newUser("gone@school.edu", "gone")
	s.Require().NoError(s.users.Delete(s.ctx, user.ID))
	s.True(registrar.IsNotFound(s.users.Delete(s.ctx, user.ID)))
}

func (s *BunSuite) TestDeleteReferencedRow() {
	user := s.newUser("held@school.edu", "held")
	s.Require().NoError(s.sessions.Create(s.ctx, &schema.Session{
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	err := s.users.Delete(s.ctx, user.ID)
	s.Require().Error(err)
	s.True(registrar.IsForeignKey(err))
}

func (s *BunSuite) TestFindAllFilterOrderAndCursor() {
	for _, name := range []string{"u1", "u2", "u3", "u4"} {
		s.newUser(name+"@school.edu", name)
	}

	users, err := s.users.FindAll(s.ctx,
		registrar.OrderBy("username", registrar.OrderAsc),
		registrar.After("username", "u2"),
		registrar.Offset(1),
		registrar.Limit(2))
	s.Require().NoError(err)
	s.Require().Len(users, 2)
	s.Equal("u3", users[0].Username)
	s.Equal("u4", users[1].Username)
}

func (s *BunSuite) TestFindAllIn() {
	s.newUser("a@school.edu", "a")
	s.newUser("b@school.edu", "b")
	s.newUser("c@school.edu", "c")

	users, err := s.users.FindAll(s.ctx,
		registrar.WhereIn("username", []interface{}{"a", "c"}))
	s.Require().NoError(err)
	s.Len(users, 2)
}

func (s *BunSuite) TestRelationLoading() {
	user := s.newUser("rel@school.edu", "rel")
	s.Require().NoError(s.sessions.Create(s.ctx, &schema.Session{
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	sessions, err := s.sessions.FindAll(s.ctx, registrar.Preload("User"))
	s.Require().NoError(err)
	s.Require().Len(sessions, 1)
	s.Require().NotNil(sessions[0].User)
	s.Equal("rel", sessions[0].User.Username)
}

func (s *BunSuite) TestAggregateAndGroupBy() {
	u1 := s.newUser("g1@school.edu", "g1")
	u2 := s.newUser("g2@school.edu", "g2")
	for i, uid := range []string{u1.ID, u1.ID, u2.ID} {
		s.Require().NoError(s.sessions.Create(s.ctx, &schema.Session{
			UserID:    uid,
			ExpiresAt: time.Now().Add(time.Duration(i+1) * time.Hour),
		}))
	}

	row, err := s.sessions.Aggregate(s.ctx, []registrar.Aggregation{registrar.Count()})
	s.Require().NoError(err)
	s.EqualValues(3, row["count"])

	rows, err := s.sessions.GroupBy(s.ctx,
		[]string{"user_id"},
		[]registrar.Aggregation{registrar.Count()})
	s.Require().NoError(err)
	s.Require().Len(rows, 2)

	byUser := map[string]int64{}
	for _, r := range rows {
		byUser[r["user_id"].(string)] = r["count"].(int64)
	}
	s.EqualValues(2, byUser[u1.ID])
	s.EqualValues(1, byUser[u2.ID])
}

func (s *BunSuite) TestRawQuery() {
	s.newUser("raw@school.edu", "raw")

	users, err := s.users.RawQuery(s.ctx,
		"SELECT * FROM users WHERE email = ?",
		[]interface{}{"raw@school.edu"})
	s.Require().NoError(err)
	s.Require().Len(users, 1)
	s.Equal("raw", users[0].Username)
}

func (s *BunSuite) TestTransactionRollback() {
	err := s.store.Transaction(s.ctx, func(ctx context.Context, tx *bunstore.Store) error {
		users := bunstore.NewRepository[schema.User](tx)
		if err := users.Create(ctx, &schema.User{Email: "keep@school.edu", Username: "keep"}); err != nil {
			return err
		}
		return users.Create(ctx, &schema.User{Email: "keep@school.edu", Username: "keep2"})
	})
	s.Require().Error(err)
	s.True(registrar.IsDuplicate(err))

	count, err := s.users.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *BunSuite) TestTransactionCommit() {
	err := s.store.Transaction(s.ctx, func(ctx context.Context, tx *bunstore.Store) error {
		users := bunstore.NewRepository[schema.User](tx)
		return users.Create(ctx, &schema.User{Email: "tx@school.edu", Username: "tx"})
	}, registrar.WithMaxWait(time.Second))
	s.Require().NoError(err)

	exists, err := s.users.Exists(s.ctx,
		registrar.Where("username", registrar.OpEqual, "tx"))
	s.Require().NoError(err)
	s.True(exists)
}

func (s *BunSuite) TestStoreInfo() {
	info := s.store.Info()
	s.Equal("bun", info.Name)
	s.NotContains(info.Features, registrar.FeatureSoftDelete)
}

func (s *BunSuite) TestOpenRejectsUnknownDriver() {
	_, err := bunstore.Open(registrar.Config{Driver: "mysql"})
	s.Require().Error(err)
	s.True(registrar.IsKind(err, registrar.KindUnsupported))
}
