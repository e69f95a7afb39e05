package gormstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"

	"github.com/edukit/registrar"
	"github.com/edukit/registrar/gormstore"
	"github.com/edukit/registrar/schema"
)

type RepositorySuite struct {
	suite.Suite
	ctx      context.Context
	store    *gormstore.Store
	users    *gormstore.Repository[schema.User]
	sessions *gormstore.Repository[schema.Session]
	courses  *gormstore.Repository[schema.Course]
	grades   *gormstore.Repository[schema.Grade]
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	s.ctx = context.Background()

	store, err := gormstore.Open(registrar.Config{
		Driver:   registrar.DialectSQLite,
		Database: ":memory:",
	}, gormstore.WithLogger(zerolog.Nop()))
	s.Require().NoError(err)
	s.Require().NoError(store.Migrate(schema.All()...))

	s.store = store
	s.users = gormstore.NewRepository[schema.User](store)
	s.sessions = gormstore.NewRepository[schema.Session](store)
	s.courses = gormstore.NewRepository[schema.Course](store)
	s.grades = gormstore.NewRepository[schema.Grade](store)
}

func (s *RepositorySuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func (s *RepositorySuite) newUser(email, username string) *schema.User {
	user := &schema.User{Email: email, Username: username}
	s.Require().NoError(s.users.Create(s.ctx, user))
	return user
}

// =====================================
// CRUD
// =====================================

func (s *RepositorySuite) TestCreateAssignsID() {
	user := s.newUser("ama@school.edu", "ama")
	s.NotEmpty(user.ID)

	found, err := s.users.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal("ama@school.edu", found.Email)
}

func (s *RepositorySuite) TestFindByIDNotFound() {
	_, err := s.users.FindByID(s.ctx, "no-such-id")
	s.Require().Error(err)
	s.True(registrar.IsNotFound(err))
}

func (s *RepositorySuite) TestCreateDuplicateEmail() {
	s.newUser("kofi@school.edu", "kofi")

	err := s.users.Create(s.ctx, &schema.User{Email: "kofi@school.edu", Username: "other"})
	s.Require().Error(err)
	s.True(registrar.IsDuplicate(err))
}

func (s *RepositorySuite) TestCreateManySkipDuplicates() {
	s.newUser("taken@school.edu", "taken")

	batch := []*schema.User{
		{Email: "new1@school.edu", Username: "new1"},
		{Email: "taken@school.edu", Username: "taken"},
		{Email: "new2@school.edu", Username: "new2"},
	}

	written, err := s.users.CreateMany(s.ctx, batch, registrar.SkipDuplicates())
	s.Require().NoError(err)
	s.Equal(int64(2), written)

	total, err := s.users.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(3), total)
}

func (s *RepositorySuite) TestCreateManyWithoutSkipFailsBatch() {
	s.newUser("taken@school.edu", "taken")

	_, err := s.users.CreateMany(s.ctx, []*schema.User{
		{Email: "taken@school.edu", Username: "taken"},
	})
	s.Require().Error(err)
	s.True(registrar.IsDuplicate(err))
}

func (s *RepositorySuite) TestUpdate() {
	user := s.newUser("efua@school.edu", "efua")
	user.ResetPasswordRequired = true

	s.Require().NoError(s.users.Update(s.ctx, user))

	found, err := s.users.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.True(found.ResetPasswordRequired)
}

func (s *RepositorySuite) TestUpdateMissingRow() {
	ghost := &schema.User{ID: "no-such-id", Email: "g@school.edu", Username: "ghost"}
	err := s.users.Update(s.ctx, ghost)
	s.Require().Error(err)
	s.True(registrar.IsNotFound(err))
}

func (s *RepositorySuite) TestUpdateFields() {
	user := s.newUser("adjoa@school.edu", "adjoa")

	err := s.users.UpdateFields(s.ctx, user.ID, map[string]interface{}{
		"username": "adjoa2",
	})
	s.Require().NoError(err)

	found, err := s.users.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal("adjoa2", found.Username)

	err = s.users.UpdateFields(s.ctx, "no-such-id", map[string]interface{}{"username": "x"})
	s.True(registrar.IsNotFound(err))
}

func (s *RepositorySuite) TestUpdateMany() {
	s.newUser("a@school.edu", "a")
	s.newUser("b@school.edu", "b")
	s.newUser("c@other.edu", "c")

	count, err := s.users.UpdateMany(s.ctx,
		map[string]interface{}{"reset_password_required": true},
		registrar.WhereLike("email", "%@school.edu"))
	s.Require().NoError(err)
	s.Equal(int64(2), count)

	count, err = s.users.UpdateMany(s.ctx,
		map[string]interface{}{"reset_password_required": true},
		registrar.Where("email", registrar.OpEqual, "nobody@school.edu"))
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *RepositorySuite) TestUpdateManyLimit() {
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

func (s *RepositorySuite) TestUpsertInsertsThenUpdates() {
	course := &schema.Course{Code: "MATH101", Title: "Algebra"}
	s.Require().NoError(s.courses.Upsert(s.ctx, course, []string{"code"}, []string{"title"}))

	clash := &schema.Course{Code: "MATH101", Title: "Algebra I"}
	s.Require().NoError(s.courses.Upsert(s.ctx, clash, []string{"code"}, []string{"title"}))

	total, err := s.courses.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), total)

	found, err := s.courses.FindOne(s.ctx, registrar.Where("code", registrar.OpEqual, "MATH101"))
	s.Require().NoError(err)
	s.Equal("Algebra I", found.Title)
}

func (s *RepositorySuite) TestDelete() {
	user := s.newUser("gone@school.edu", "gone")
	s.Require().NoError(s.users.Delete(s.ctx, user.ID))

	_, err := s.users.FindByID(s.ctx, user.ID)
	s.True(registrar.IsNotFound(err))

	err = s.users.Delete(s.ctx, user.ID)
	s.True(registrar.IsNotFound(err))
}

func (s *RepositorySuite) TestDeleteReferencedRow() {
	user := s.newUser("held@school.edu", "held")
	session := &schema.Session{UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}
	s.Require().NoError(s.sessions.Create(s.ctx, session))

	err := s.users.Delete(s.ctx, user.ID)
	s.Require().Error(err)
	s.True(registrar.IsForeignKey(err))
}

func (s *RepositorySuite) TestDeleteMany() {
	user := s.newUser("owner@school.edu", "owner")
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.sessions.Create(s.ctx, &schema.Session{
			UserID:    user.ID,
			ExpiresAt: time.Now().Add(time.Duration(2*i-1) * time.Hour),
		}))
	}

	count, err := s.sessions.DeleteMany(s.ctx,
		registrar.Where("expires_at", registrar.OpLessThan, time.Now()))
	s.Require().NoError(err)
	s.Equal(int64(1), count)

	count, err = s.sessions.DeleteMany(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), count)
}

func (s *RepositorySuite) TestDeleteManyLimit() {
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

// =====================================
// Queries
// =====================================

func (s *RepositorySuite) TestFindOneNotFound() {
	_, err := s.users.FindOne(s.ctx, registrar.Where("email", registrar.OpEqual, "void@school.edu"))
	s.True(registrar.IsNotFound(err))
}

func (s *RepositorySuite) TestFindAllFilterAndOrder() {
	s.newUser("zeta@school.edu", "zeta")
	s.newUser("alpha@school.edu", "alpha")
	s.newUser("mid@other.edu", "mid")

	users, err := s.users.FindAll(s.ctx,
		registrar.WhereLike("email", "%@school.edu"),
		registrar.OrderBy("username", registrar.OrderAsc))
	s.Require().NoError(err)
	s.Require().Len(users, 2)
	s.Equal("alpha", users[0].Username)
	s.Equal("zeta", users[1].Username)
}

func (s *RepositorySuite) TestFindAllComposite() {
	s.newUser("a@school.edu", "a")
	s.newUser("b@school.edu", "b")
	s.newUser("c@school.edu", "c")

	users, err := s.users.FindAll(s.ctx, registrar.Or(
		registrar.Cond("username", registrar.OpEqual, "a"),
		registrar.Cond("username", registrar.OpEqual, "c"),
	))
	s.Require().NoError(err)
	s.Len(users, 2)
}

func (s *RepositorySuite) TestCursorPagination() {
	for _, name := range []string{"u1", "u2", "u3", "u4"} {
		s.newUser(name+"@school.edu", name)
	}

	page, err := s.users.FindAll(s.ctx,
		registrar.OrderBy("username", registrar.OrderAsc),
		registrar.After("username", "u2"),
		registrar.Offset(1),
		registrar.Limit(2))
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal("u3", page[0].Username)
	s.Equal("u4", page[1].Username)
}

func (s *RepositorySuite) TestSelectProjection() {
	s.newUser("proj@school.edu", "proj")

	users, err := s.users.FindAll(s.ctx, registrar.Select("id", "email"))
	s.Require().NoError(err)
	s.Require().Len(users, 1)
	s.NotEmpty(users[0].ID)
	s.Equal("proj@school.edu", users[0].Email)
	s.Empty(users[0].Username)
}

func (s *RepositorySuite) TestSelectWithPreloadRejected() {
	_, err := s.users.FindAll(s.ctx,
		registrar.Select("id"),
		registrar.Preload("Sessions"))
	s.Require().Error(err)
	s.True(registrar.IsValidation(err))
}

func (s *RepositorySuite) TestPreload() {
	user := s.newUser("rel@school.edu", "rel")
	for i := 0; i < 2; i++ {
		s.Require().NoError(s.sessions.Create(s.ctx, &schema.Session{
			UserID:    user.ID,
			ExpiresAt: time.Now().Add(time.Duration(i+1) * time.Hour),
		}))
	}

	found, err := s.users.FindOne(s.ctx,
		registrar.Where("id", registrar.OpEqual, user.ID),
		registrar.Preload("Sessions"))
	s.Require().NoError(err)
	s.Len(found.Sessions, 2)
}

func (s *RepositorySuite) TestPreloadScoped() {
	user := s.newUser("scoped@school.edu", "scoped")
	past := &schema.Session{UserID: user.ID, ExpiresAt: time.Now().Add(-time.Hour)}
	future := &schema.Session{UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}
	s.Require().NoError(s.sessions.Create(s.ctx, past))
	s.Require().NoError(s.sessions.Create(s.ctx, future))

	found, err := s.users.FindOne(s.ctx,
		registrar.Where("id", registrar.OpEqual, user.ID),
		registrar.Preload("Sessions",
			registrar.Where("expires_at", registrar.OpGreaterThan, time.Now())))
	s.Require().NoError(err)
	s.Require().Len(found.Sessions, 1)
	s.Equal(future.ID, found.Sessions[0].ID)
}

func (s *RepositorySuite) TestCountAndExists() {
	s.newUser("one@school.edu", "one")
	s.newUser("two@school.edu", "two")

	count, err := s.users.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), count)

	exists, err := s.users.Exists(s.ctx, registrar.Where("username", registrar.OpEqual, "one"))
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.users.Exists(s.ctx, registrar.Where("username", registrar.OpEqual, "nine"))
	s.Require().NoError(err)
	s.False(exists)
}

func (s *RepositorySuite) seedGrades() {
	scores := []float64{50, 70, 90}
	for i, score := range scores {
		semester := schema.SemesterFirst
		if i == 2 {
			semester = schema.SemesterSecond
		}
		s.Require().NoError(s.grades.Create(s.ctx, &schema.Grade{
			Score:    score,
			Semester: semester,
			Year:     2025,
		}))
	}
}

func (s *RepositorySuite) TestAggregate() {
	s.seedGrades()

	row, err := s.grades.Aggregate(s.ctx, []registrar.Aggregation{
		registrar.Count(),
		registrar.Avg("score"),
		registrar.Min("score"),
		registrar.Max("score"),
	})
	s.Require().NoError(err)

	s.EqualValues(3, row["count"])
	s.InDelta(70.0, row["avg_score"], 0.001)
	s.EqualValues(50, row["min_score"])
	s.EqualValues(90, row["max_score"])
}

func (s *RepositorySuite) TestAggregateRejectsStarOnAvg() {
	_, err := s.grades.Aggregate(s.ctx, []registrar.Aggregation{registrar.Avg("*")})
	s.Require().Error(err)
	s.True(registrar.IsValidation(err))
}

func (s *RepositorySuite) TestGroupBy() {
	s.seedGrades()

	rows, err := s.grades.GroupBy(s.ctx,
		[]string{"semester"},
		[]registrar.Aggregation{registrar.Count(), registrar.Avg("score")},
		registrar.OrderBy("semester", registrar.OrderAsc))
	s.Require().NoError(err)
	s.Require().Len(rows, 2)

	bySemester := map[string]registrar.Row{}
	for _, row := range rows {
		bySemester[row["semester"].(string)] = row
	}
	s.EqualValues(2, bySemester["First"]["count"])
	s.EqualValues(1, bySemester["Second"]["count"])
}

func (s *RepositorySuite) TestGroupByWithHaving() {
	s.seedGrades()

	rows, err := s.grades.GroupBy(s.ctx,
		[]string{"semester"},
		[]registrar.Aggregation{registrar.Count()},
		registrar.Having("COUNT(*)", registrar.OpGreaterThan, 1))
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal("First", rows[0]["semester"])
}

// =====================================
// Raw SQL
// =====================================

func (s *RepositorySuite) TestRawQuery() {
	s.newUser("raw@school.edu", "raw")

	users, err := s.users.RawQuery(s.ctx,
		"SELECT * FROM users WHERE email = ?",
		[]interface{}{"raw@school.edu"})
	s.Require().NoError(err)
	s.Require().Len(users, 1)
	s.Equal("raw", users[0].Username)
}

func (s *RepositorySuite) TestRawExec() {
	user := s.newUser("exec@school.edu", "exec")

	res, err := s.users.RawExec(s.ctx,
		"UPDATE users SET username = ? WHERE id = ?",
		[]interface{}{"execd", user.ID})
	s.Require().NoError(err)

	affected, err := res.RowsAffected()
	s.Require().NoError(err)
	s.Equal(int64(1), affected)
}

// =====================================
// Transactions
// =====================================

func (s *RepositorySuite) TestTransactionCommit() {
	err := s.store.Transaction(s.ctx, func(ctx context.Context, tx *gormstore.Store) error {
		users := gormstore.NewRepository[schema.User](tx)
		if err := users.Create(ctx, &schema.User{Email: "t1@school.edu", Username: "t1"}); err != nil {
			return err
		}
		return users.Create(ctx, &schema.User{Email: "t2@school.edu", Username: "t2"})
	})
	s.Require().NoError(err)

	count, err := s.users.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), count)
}

func (s *RepositorySuite) TestTransactionRollback() {
	err := s.store.Transaction(s.ctx, func(ctx context.Context, tx *gormstore.Store) error {
		users := gormstore.NewRepository[schema.User](tx)
		if err := users.Create(ctx, &schema.User{Email: "keep@school.edu", Username: "keep"}); err != nil {
			return err
		}
		// Second insert collides; the whole batch must vanish.
		return users.Create(ctx, &schema.User{Email: "keep@school.edu", Username: "keep2"})
	})
	s.Require().Error(err)
	s.True(registrar.IsDuplicate(err))

	count, err := s.users.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *RepositorySuite) TestTransactionTimeout() {
	err := s.store.Transaction(s.ctx, func(ctx context.Context, tx *gormstore.Store) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	}, registrar.WithTimeout(20*time.Millisecond))
	s.Require().Error(err)
	s.True(registrar.IsTimeout(err))
}

// =====================================
// Store
// =====================================

func (s *RepositorySuite) TestStoreInfoAndHealth() {
	s.Require().NoError(s.store.Health())

	info := s.store.Info()
	s.Equal("gorm", info.Name)
	s.Equal(registrar.DialectSQLite, info.Dialect)
	s.Contains(info.Features, registrar.FeatureTransactions)
	s.Contains(info.Features, registrar.FeatureSoftDelete)
}

func (s *RepositorySuite) TestEntityInfo() {
	info, err := s.store.EntityInfo(&schema.User{})
	s.Require().NoError(err)

	s.Equal("users", info.Table)
	s.Equal([]string{"id"}, info.PrimaryKey)
	s.Contains(info.Relations, "Sessions")

	var emailUnique bool
	for _, f := range info.Fields {
		if f.Column == "email" {
			emailUnique = f.Unique
		}
	}
	s.True(emailUnique)
}

func (s *RepositorySuite) TestOpenRejectsUnknownDriver() {
	_, err := gormstore.Open(registrar.Config{Driver: "oracle"})
	s.Require().Error(err)
	s.True(registrar.IsKind(err, registrar.KindUnsupported))
}
