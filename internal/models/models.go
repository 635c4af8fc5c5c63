package models

import (
	"context"
	"fmt"

	"github.com/syssam/arecord/dialect"
	"github.com/syssam/arecord/model"
)

// User is a row of the users table.
type User struct {
	ID       int64
	Email    string
	Password string
}

// NewUser builds a User from cast values.
func NewUser(v model.Values) *User {
	u := &User{}
	u.SetValues(v)
	return u
}

// Values implements model.Entity.
func (u *User) Values() model.Values {
	v := model.Values{"email": u.Email, "password": u.Password}
	if u.ID != 0 {
		v["id"] = u.ID
	}
	return v
}

// SetValues implements model.Entity.
func (u *User) SetValues(v model.Values) {
	u.ID = v.Int("id")
	u.Email = v.String("email")
	u.Password = v.String("password")
}

// Post is a row of the posts table.
type Post struct {
	ID      int64
	Title   string
	Content string
	UserID  int64
}

// NewPost builds a Post from cast values.
func NewPost(v model.Values) *Post {
	p := &Post{}
	p.SetValues(v)
	return p
}

// Values implements model.Entity.
func (p *Post) Values() model.Values {
	v := model.Values{"title": p.Title, "content": p.Content}
	if p.ID != 0 {
		v["id"] = p.ID
	}
	if p.UserID != 0 {
		v["user_id"] = p.UserID
	}
	return v
}

// SetValues implements model.Entity.
func (p *Post) SetValues(v model.Values) {
	p.ID = v.Int("id")
	p.Title = v.String("title")
	p.Content = v.String("content")
	p.UserID = v.Int("user_id")
}

// Client bundles the models of the application on one connection.
type Client struct {
	Users *model.Model[*User]
	Posts *model.Model[*Post]

	posts  *model.Relation[*Post]
	author *model.Relation[*User]
}

// NewClient returns a Client using drv.
func NewClient(drv dialect.ExecQuerier) (*Client, error) {
	c := &Client{
		Users: model.New(drv, UserEntity, NewUser),
		Posts: model.New(drv, PostEntity, NewPost),
	}
	var err error
	if c.posts, err = model.NewRelation(UserEntity, "posts", c.Posts); err != nil {
		return nil, fmt.Errorf("models: %w", err)
	}
	if c.author, err = model.NewRelation(PostEntity, "author", c.Users); err != nil {
		return nil, fmt.Errorf("models: %w", err)
	}
	return c, nil
}

// PostsOf returns the posts written by u.
func (c *Client) PostsOf(ctx context.Context, u *User) ([]*Post, error) {
	return c.posts.Get(ctx, u)
}

// AuthorOf returns the author of p, or nil.
func (c *Client) AuthorOf(ctx context.Context, p *Post) (*User, error) {
	return c.author.First(ctx, p)
}
