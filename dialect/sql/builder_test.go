package sql

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/arecord"
	"github.com/syssam/arecord/dialect"
)

func newMock(t *testing.T) (*Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return OpenDB(dialect.MySQL, db), mock
}

func TestBuilderQuery(t *testing.T) {
	tests := []struct {
		name      string
		b         *Builder
		wantQuery string
		wantArgs  []any
	}{
		{
			name:      "all",
			b:         Table(nil, "users"),
			wantQuery: "SELECT * FROM users",
		},
		{
			name:      "select_where",
			b:         Table(nil, "users").Select("id", "email").Where("id", "=", 1),
			wantQuery: "SELECT id, email FROM users WHERE id = ?",
			wantArgs:  []any{1},
		},
		{
			name: "clause_order",
			b: Table(nil, "users").
				Offset(20).
				Limit(10).
				GroupBy("role").
				OrderBy("id", "desc").
				Where("age", ">=", 18).
				Where("name", "like", "a%"),
			wantQuery: "SELECT * FROM users WHERE age >= ? AND name LIKE ? ORDER BY id DESC GROUP BY role LIMIT 10 OFFSET 20",
			wantArgs:  []any{18, "a%"},
		},
		{
			name: "joins",
			b: Table(nil, "users").
				Select("users.*", "posts.title").
				InnerJoin("posts", "posts.user_id = users.id").
				LeftJoin("comments", "comments.post_id = posts.id").
				Where("users.id", "!=", 3),
			wantQuery: "SELECT users.*, posts.title FROM users INNER JOIN posts ON posts.user_id = users.id LEFT JOIN comments ON comments.post_id = posts.id WHERE users.id != ?",
			wantArgs:  []any{3},
		},
		{
			name:      "in",
			b:         Table(nil, "users").Where("id", "IN", []int{1, 2, 3}).Where("role", "not in", []string{"bot"}),
			wantQuery: "SELECT * FROM users WHERE id IN (?, ?, ?) AND role NOT IN (?)",
			wantArgs:  []any{1, 2, 3, "bot"},
		},
		{
			name:      "in_scalar",
			b:         Table(nil, "users").Where("id", "IN", 7),
			wantQuery: "SELECT * FROM users WHERE id IN (?)",
			wantArgs:  []any{7},
		},
		{
			name:      "raw",
			b:         Table(nil, "users").Where("active", "=", true).WhereRaw("created_at > NOW() - INTERVAL ? DAY", 7),
			wantQuery: "SELECT * FROM users WHERE active = ? AND created_at > NOW() - INTERVAL ? DAY",
			wantArgs:  []any{true, 7},
		},
		{
			name:      "order_default_asc",
			b:         Table(nil, "posts").OrderBy("title"),
			wantQuery: "SELECT * FROM posts ORDER BY title ASC",
		},
		{
			name:      "zero_limit_omitted",
			b:         Table(nil, "posts").Limit(0).Offset(0),
			wantQuery: "SELECT * FROM posts",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.b.Err())
			query, args := tt.b.Query()
			assert.Equal(t, tt.wantQuery, query)
			assert.Equal(t, tt.wantArgs, []any(args))
			assert.Equal(t, tt.wantQuery, tt.b.String())
		})
	}
}

func TestBuilderRecordsFirstError(t *testing.T) {
	tests := []struct {
		name string
		b    *Builder
		want error
	}{
		{"operator", Table(nil, "users").Where("id", "<>", 1), arecord.ErrInvalidOperator},
		{"operator_injection", Table(nil, "users").Where("id", "= 1 OR 1 =", 1), arecord.ErrInvalidOperator},
		{"table", Table(nil, "users; DROP TABLE users"), arecord.ErrInvalidIdentifier},
		{"column", Table(nil, "users").Where("id = 1 --", "=", 1), arecord.ErrInvalidIdentifier},
		{"select", Table(nil, "users").Select("COUNT(*)"), arecord.ErrInvalidIdentifier},
		{"order", Table(nil, "users").OrderBy("id", "sideways"), arecord.ErrInvalidIdentifier},
		{"group", Table(nil, "users").GroupBy("a b"), arecord.ErrInvalidIdentifier},
		{"join", Table(nil, "users").InnerJoin("posts p", "p.id = users.id"), arecord.ErrInvalidIdentifier},
		{"first_wins", Table(nil, "users").Where("id", "~", 1).Where("x y", "=", 1), arecord.ErrInvalidOperator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.b.Err(), tt.want)
		})
	}

	err := Table(nil, "users").Where("id", "IN", []int{}).Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-empty list")

	err = Table(nil, "users").WhereRaw("a = ? AND b = ?", 1).Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 placeholders but 1 arguments")
}

func TestBuilderInvalidNeverExecutes(t *testing.T) {
	drv, _ := newMock(t)
	ctx := context.Background()

	_, err := Table(drv, "users").Where("id", "<>", 1).Get(ctx)
	require.ErrorIs(t, err, arecord.ErrInvalidOperator)
	_, err = Table(drv, "users").Where("id", "<>", 1).Delete(ctx)
	require.ErrorIs(t, err, arecord.ErrInvalidOperator)
	_, err = Table(drv, "users").Where("id", "<>", 1).Count(ctx)
	require.ErrorIs(t, err, arecord.ErrInvalidOperator)
	_, err = Table(drv, "users").Insert(ctx, map[string]any{"bad col": 1})
	require.ErrorIs(t, err, arecord.ErrInvalidIdentifier)
}

func TestBuilderGet(t *testing.T) {
	drv, mock := newMock(t)
	mock.ExpectQuery("SELECT * FROM users WHERE id = ?").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow(int64(1), "a@x.io"))

	rows, err := Table(drv, "users").Where("id", "=", 1).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"id": int64(1), "email": "a@x.io"}}, rows)
}

func TestBuilderGetError(t *testing.T) {
	drv, mock := newMock(t)
	mock.ExpectQuery("SELECT * FROM users").WillReturnError(errors.New("gone away"))

	_, err := Table(drv, "users").Get(context.Background())
	var qerr *arecord.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "users", qerr.Table)
	assert.Equal(t, "select", qerr.Op)
}

func TestBuilderFirst(t *testing.T) {
	drv, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT * FROM users WHERE email = ? LIMIT 1").
		WithArgs("a@x.io").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(4)))
	row, err := Table(drv, "users").Where("email", "=", "a@x.io").First(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int64(4)}, row)

	mock.ExpectQuery("SELECT * FROM users WHERE id = ? LIMIT 1").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	row, err = Table(drv, "users").Where("id", "=", 99).First(ctx)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestBuilderCount(t *testing.T) {
	drv, mock := newMock(t)
	mock.ExpectQuery("SELECT COUNT(*) FROM posts WHERE user_id = ?").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(3)))

	n, err := Table(drv, "posts").Where("user_id", "=", 1).OrderBy("id").Limit(5).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	mock.ExpectQuery("SELECT COUNT(*) FROM (SELECT 1 FROM posts WHERE title != ? GROUP BY user_id) grouped").
		WithArgs("draft").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(2)))
	n, err = Table(drv, "posts").Where("title", "!=", "draft").GroupBy("user_id").Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestBuilderPluck(t *testing.T) {
	drv, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT email FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("a@x.io").AddRow("b@x.io"))
	emails, err := Table(drv, "users").Pluck(ctx, "email")
	require.NoError(t, err)
	assert.Equal(t, []any{"a@x.io", "b@x.io"}, emails)

	mock.ExpectQuery("SELECT email, id FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"email", "id"}).
			AddRow("a@x.io", int64(1)).
			AddRow("b@x.io", int64(2)))
	byID, err := Table(drv, "users").PluckMap(ctx, "email", "id")
	require.NoError(t, err)
	assert.Equal(t, map[any]any{int64(1): "a@x.io", int64(2): "b@x.io"}, byID)

	mock.ExpectQuery("SELECT users.email FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("c@x.io"))
	emails, err = Table(drv, "users").Pluck(ctx, "users.email")
	require.NoError(t, err)
	assert.Equal(t, []any{"c@x.io"}, emails)
}

func TestBuilderInsert(t *testing.T) {
	drv, mock := newMock(t)
	mock.ExpectExec("INSERT INTO users (email, name) VALUES (?, ?)").
		WithArgs("a@x.io", "A").
		WillReturnResult(sqlmock.NewResult(5, 1))

	id, err := Table(drv, "users").Insert(context.Background(), map[string]any{"name": "A", "email": "a@x.io"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
}

func TestBuilderInsertConstraint(t *testing.T) {
	drv, mock := newMock(t)
	mock.ExpectExec("INSERT INTO users (email) VALUES (?)").
		WithArgs("a@x.io").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@x.io' for key 'email'"})

	_, err := Table(drv, "users").Insert(context.Background(), map[string]any{"email": "a@x.io"})
	require.Error(t, err)
	assert.True(t, arecord.IsConstraintError(err))
	var merr *arecord.MutationError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "insert", merr.Op)
}

func TestConstraintViolation(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&mysql.MySQLError{Number: 1062}, true},
		{&mysql.MySQLError{Number: 1451}, true},
		{&mysql.MySQLError{Number: 1452}, true},
		{&mysql.MySQLError{Number: 1146}, false},
		{errors.New("UNIQUE constraint failed: users.email"), true},
		{errors.New("FOREIGN KEY constraint failed"), true},
		{errors.New("no such table: users"), false},
	}
	for _, tt := range tests {
		_, ok := constraintViolation(tt.err)
		assert.Equal(t, tt.want, ok, tt.err.Error())
	}
}

func TestBuilderBatchInsert(t *testing.T) {
	drv, mock := newMock(t)
	ctx := context.Background()

	ok, err := Table(drv, "users").BatchInsert(ctx, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectExec("INSERT INTO users (email, name) VALUES (?, ?), (?, ?)").
		WithArgs("a@x.io", "A", "b@x.io", "B").
		WillReturnResult(sqlmock.NewResult(2, 2))
	ok, err = Table(drv, "users").BatchInsert(ctx, []map[string]any{
		{"name": "A", "email": "a@x.io"},
		{"email": "b@x.io", "name": "B"},
	})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = Table(drv, "users").BatchInsert(ctx, []map[string]any{
		{"name": "A", "email": "a@x.io"},
		{"name": "B"},
	})
	require.ErrorIs(t, err, ErrColumnMismatch)

	_, err = Table(drv, "users").BatchInsert(ctx, []map[string]any{
		{"name": "A"},
		{"email": "b@x.io"},
	})
	require.ErrorIs(t, err, ErrColumnMismatch)
}

func TestBuilderUpdate(t *testing.T) {
	drv, mock := newMock(t)
	ctx := context.Background()

	_, err := Table(drv, "users").Update(ctx, map[string]any{"name": "x"})
	require.ErrorIs(t, err, arecord.ErrMissingWhereClause)

	mock.ExpectExec("UPDATE users SET email = ?, name = ? WHERE id = ? AND active = ?").
		WithArgs("n@x.io", "N", 1, true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	n, err := Table(drv, "users").
		Where("id", "=", 1).
		Where("active", "=", true).
		Update(ctx, map[string]any{"name": "N", "email": "n@x.io"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = Table(drv, "users").Where("id", "=", 1).Update(ctx, map[string]any{})
	require.Error(t, err)
}

func TestBuilderDelete(t *testing.T) {
	drv, mock := newMock(t)
	ctx := context.Background()

	_, err := Table(drv, "users").Delete(ctx)
	require.ErrorIs(t, err, arecord.ErrMissingWhereClause)
	var werr *arecord.MissingWhereError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "delete", werr.Op)

	mock.ExpectExec("DELETE FROM posts WHERE user_id IN (?, ?)").
		WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(0, 4))
	n, err := Table(drv, "posts").Where("user_id", "IN", []int{1, 2}).Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	mock.ExpectExec("DELETE FROM posts WHERE id = ?").
		WithArgs(9).
		WillReturnError(&mysql.MySQLError{Number: 1451, Message: "Cannot delete or update a parent row"})
	_, err = Table(drv, "posts").Where("id", "=", 9).Delete(ctx)
	require.Error(t, err)
	assert.True(t, arecord.IsConstraintError(err))
}
