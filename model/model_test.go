package model_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/arecord"
	"github.com/syssam/arecord/dialect"
	"github.com/syssam/arecord/dialect/sql"
	"github.com/syssam/arecord/model"
	"github.com/syssam/arecord/schema"
	"github.com/syssam/arecord/schema/edge"
	"github.com/syssam/arecord/schema/field"
	"github.com/syssam/arecord/schema/mixin"
)

type userSchema struct{ schema.Schema }

func (userSchema) Name() string  { return "User" }
func (userSchema) Table() string { return "users" }

func (userSchema) Mixin() []schema.Mixin { return []schema.Mixin{mixin.ID{}} }

func (userSchema) Fields() []field.Field {
	return []field.Field{
		field.String("email").Unique().Required(),
		field.String("password").Required(),
		field.Bool("active"),
		field.Float("score"),
		field.JSON("meta"),
	}
}

func (userSchema) Edges() []edge.Edge {
	return []edge.Edge{
		edge.HasMany("posts", "Post"),
		edge.HasOne("latest", "Post"),
	}
}

type postSchema struct{ schema.Schema }

func (postSchema) Name() string  { return "Post" }
func (postSchema) Table() string { return "posts" }

func (postSchema) Mixin() []schema.Mixin { return []schema.Mixin{mixin.ID{}} }

func (postSchema) Fields() []field.Field {
	return []field.Field{
		field.String("title").Unique(),
		field.Text("body").Required(),
		field.Ref("user_id", "users").Required(),
	}
}

func (postSchema) Edges() []edge.Edge {
	return []edge.Edge{edge.BelongsTo("author", "User")}
}

// record is a minimal entity used by the tests.
type record struct{ v model.Values }

func newRecord(v model.Values) *record { return &record{v: v} }

func (r *record) Values() model.Values     { return r.v }
func (r *record) SetValues(v model.Values) { r.v = v }

var (
	userEntity = schema.MustLoad(userSchema{})
	postEntity = schema.MustLoad(postSchema{})
)

func newModels(t *testing.T) (*model.Model[*record], *model.Model[*record], sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	drv := sql.OpenDB(dialect.MySQL, db)
	return model.New(drv, userEntity, newRecord), model.New(drv, postEntity, newRecord), mock
}

var userColumns = []string{"id", "email", "password", "active", "score", "meta"}

func TestFind(t *testing.T) {
	users, _, mock := newModels(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT * FROM users WHERE id = ? LIMIT 1").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(append(userColumns, "extra")).
			AddRow("1", []byte("a@x.com"), "pw", int64(1), "2.5", `{"k":"v"}`, "ignored"))
	u, err := users.Find(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, model.Values{
		"id":       int64(1),
		"email":    "a@x.com",
		"password": "pw",
		"active":   true,
		"score":    2.5,
		"meta":     map[string]any{"k": "v"},
	}, u.Values())

	mock.ExpectQuery("SELECT * FROM users WHERE id = ? LIMIT 1").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(userColumns))
	u, err = users.Find(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, u)

	mock.ExpectQuery("SELECT * FROM users WHERE id = ? LIMIT 1").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(userColumns))
	_, err = users.FindOrFail(ctx, 2)
	require.Error(t, err)
	assert.True(t, arecord.IsNotFound(err))
}

func TestAllAndCount(t *testing.T) {
	users, _, mock := newModels(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT * FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).
			AddRow(int64(1), "a@x.com").
			AddRow(int64(2), "b@x.com"))
	all, err := users.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b@x.com", all[1].Values().String("email"))

	mock.ExpectQuery("SELECT COUNT(*) FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(2)))
	n, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	mock.ExpectQuery("SELECT * FROM users WHERE active = ? ORDER BY id DESC LIMIT 1").
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))
	u, err := users.First(ctx, users.Query().Where("active", "=", true).OrderBy("id", "DESC"))
	require.NoError(t, err)
	assert.Equal(t, int64(9), u.Values().Int("id"))
}

func TestCreate(t *testing.T) {
	users, _, mock := newModels(t)

	mock.ExpectQuery("SELECT COUNT(*) FROM users WHERE email = ?").
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(0)))
	mock.ExpectExec("INSERT INTO users (email, password) VALUES (?, ?)").
		WithArgs("a@x.com", "pw").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("SELECT * FROM users WHERE id = ? LIMIT 1").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password"}).AddRow(int64(7), "a@x.com", "pw"))

	u, err := users.Create(context.Background(), model.Values{"email": "a@x.com", "password": "pw"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.Values().Int("id"))
	assert.Equal(t, "a@x.com", u.Values().String("email"))
}

func TestCreateRejectsProtected(t *testing.T) {
	users, _, _ := newModels(t)
	_, err := users.Create(context.Background(), model.Values{"id": 1, "created_at": "now", "email": "a@x.com"})
	require.ErrorIs(t, err, arecord.ErrProtectedField)
	var pe *arecord.ProtectedFieldError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, []string{"created_at", "id"}, pe.Fields)
}

func TestCreateValidationFailure(t *testing.T) {
	_, posts, mock := newModels(t)

	mock.ExpectQuery("SELECT COUNT(*) FROM posts WHERE title = ?").
		WithArgs("dup").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT COUNT(*) FROM users WHERE id = ?").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(0)))

	_, err := posts.Create(context.Background(), model.Values{"title": "dup", "user_id": 99})
	require.ErrorIs(t, err, arecord.ErrValidationFailed)
	var ve *arecord.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, map[string][]string{
		"title":   {model.MsgUnique},
		"body":    {model.MsgRequired},
		"user_id": {model.MsgRelated},
	}, ve.Fields)
}

func TestValidateTypes(t *testing.T) {
	users, _, mock := newModels(t)

	mock.ExpectQuery("SELECT COUNT(*) FROM users WHERE email = ?").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(0)))

	err := users.Validate(context.Background(), model.Values{
		"email":    5,
		"password": nil,
		"active":   "yes",
		"score":    "abc",
		"meta":     "{}",
	})
	var ve *arecord.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, map[string][]string{
		"email":    {"Invalid type, expected string"},
		"password": {model.MsgRequired},
		"active":   {"Invalid type, expected bool"},
		"score":    {"Invalid type, expected float"},
		"meta":     {"Invalid type, expected json"},
	}, ve.Fields)

	mock.ExpectQuery("SELECT COUNT(*) FROM users WHERE email = ? AND id != ?").
		WithArgs("a@x.com", 3).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(0)))
	err = users.Validate(context.Background(), model.Values{
		"id":       3,
		"email":    "a@x.com",
		"password": "pw",
		"active":   true,
		"score":    "1.5",
		"meta":     []any{"a"},
	})
	require.NoError(t, err)
}

func TestUpdate(t *testing.T) {
	users, _, mock := newModels(t)
	ctx := context.Background()
	inst := newRecord(model.Values{"id": int64(1), "email": "a@x.com", "password": "pw"})

	mock.ExpectQuery("SELECT COUNT(*) FROM users WHERE email = ? AND id != ?").
		WithArgs("b@x.com", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(0)))
	mock.ExpectExec("UPDATE users SET email = ? WHERE id = ?").
		WithArgs("b@x.com", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT * FROM users WHERE id = ? LIMIT 1").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password"}).AddRow(int64(1), "b@x.com", "pw"))

	fresh, err := users.Update(ctx, inst, model.Values{"email": "b@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", fresh.Values().String("email"))
	assert.Equal(t, "b@x.com", inst.Values().String("email"), "instance refreshed in place")

	same, err := users.Update(ctx, inst, nil)
	require.NoError(t, err)
	assert.Same(t, inst, same)

	_, err = users.Update(ctx, inst, model.Values{"updated_at": "now"})
	require.ErrorIs(t, err, arecord.ErrProtectedField)

	_, err = users.Update(ctx, newRecord(model.Values{"email": "x"}), model.Values{"email": "y"})
	require.ErrorIs(t, err, arecord.ErrMissingPrimaryKey)
}

func TestUpdateBy(t *testing.T) {
	users, _, mock := newModels(t)
	ctx := context.Background()

	_, err := users.UpdateBy(ctx, model.Values{"password": "x"}, nil)
	require.ErrorIs(t, err, arecord.ErrMissingWhereClause)

	_, err = users.UpdateBy(ctx, model.Values{"id": 2}, model.Values{"email": "a@x.com"})
	require.ErrorIs(t, err, arecord.ErrProtectedField)

	mock.ExpectExec("UPDATE users SET password = ? WHERE active = ? AND score = ?").
		WithArgs("x", true, 1).
		WillReturnResult(sqlmock.NewResult(0, 3))
	n, err := users.UpdateBy(ctx, model.Values{"password": "x"}, model.Values{"score": 1, "active": true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestDelete(t *testing.T) {
	users, _, mock := newModels(t)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM users WHERE id = ?").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := users.Delete(ctx, newRecord(model.Values{"id": int64(1)}))
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec("DELETE FROM users WHERE id = ?").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = users.Delete(ctx, newRecord(model.Values{"id": int64(1)}))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = users.Delete(ctx, newRecord(model.Values{}))
	require.ErrorIs(t, err, arecord.ErrMissingPrimaryKey)
}

func TestToArray(t *testing.T) {
	users, _, _ := newModels(t)
	u := newRecord(model.Values{"id": int64(1), "email": "a@x.com", "password": "pw", "active": true, "internal": 1})
	assert.Equal(t, map[string]any{
		"email":    "a@x.com",
		"password": "pw",
		"active":   true,
		"score":    nil,
		"meta":     nil,
	}, users.ToArray(u))
}

func TestHydrateError(t *testing.T) {
	users, _, _ := newModels(t)
	_, err := users.Hydrate(map[string]any{"id": "1", "meta": "{broken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "users.meta")
}
