// Package models declares the application's entities.
package models

import (
	"github.com/syssam/arecord/schema"
	"github.com/syssam/arecord/schema/edge"
	"github.com/syssam/arecord/schema/field"
	"github.com/syssam/arecord/schema/mixin"
)

// UserSchema declares the users table.
type UserSchema struct{ schema.Schema }

func (UserSchema) Name() string  { return "User" }
func (UserSchema) Table() string { return "users" }

func (UserSchema) Mixin() []schema.Mixin { return []schema.Mixin{mixin.ID{}} }

func (UserSchema) Fields() []field.Field {
	return []field.Field{
		field.String("email").Unique().Required(),
		field.String("password").Required(),
	}
}

func (UserSchema) Edges() []edge.Edge {
	return []edge.Edge{edge.HasMany("posts", "Post")}
}

// PostSchema declares the posts table.
type PostSchema struct{ schema.Schema }

func (PostSchema) Name() string  { return "Post" }
func (PostSchema) Table() string { return "posts" }

func (PostSchema) Mixin() []schema.Mixin { return []schema.Mixin{mixin.ID{}} }

func (PostSchema) Fields() []field.Field {
	return []field.Field{
		field.String("title").Unique(),
		field.Text("content"),
		field.Ref("user_id", "users").Required(),
	}
}

func (PostSchema) Edges() []edge.Edge {
	return []edge.Edge{edge.BelongsTo("author", "User")}
}

// Loaded entity definitions.
var (
	UserEntity = schema.MustLoad(UserSchema{})
	PostEntity = schema.MustLoad(PostSchema{})
)

// Schemas lists every entity declaration of the application.
func Schemas() []schema.Interface {
	return []schema.Interface{UserSchema{}, PostSchema{}}
}

// NewRegistry returns a checked registry of all entities.
func NewRegistry() (*schema.Registry, error) {
	r, err := schema.NewRegistry(Schemas()...)
	if err != nil {
		return nil, err
	}
	if err := r.Check(); err != nil {
		return nil, err
	}
	return r, nil
}
