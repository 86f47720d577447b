package client

import (
	"context"
	"fmt"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	City         string    `json:"city"`
	Role         string    `json:"role"`
	ReviewRating float64   `json:"review_rating"`
	CreatedAt    Timestamp `json:"created_at"`
}

// FullName joins name and surname.
func (u User) FullName() string {
	switch {
	case u.Name == "":
		return u.Surname
	case u.Surname == "":
		return u.Name
	}
	return u.Name + " " + u.Surname
}

// UserUpdate carries the fields to change. Nil fields are left untouched.
type UserUpdate struct {
	Name    *string `json:"name,omitempty"`
	Surname *string `json:"surname,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	City    *string `json:"city,omitempty"`
	Role    *string `json:"role,omitempty"`
}

type UsersService struct {
	c *Client
}

func (s *UsersService) List(ctx context.Context) ([]User, error) {
	var out []User
	if err := s.c.get(ctx, "/user", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *UsersService) Get(ctx context.Context, id int64) (*User, error) {
	var u User
	if err := s.c.get(ctx, fmt.Sprintf("/user/%d", id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UsersService) Update(ctx context.Context, id int64, upd UserUpdate) (*User, error) {
	var u User
	if err := s.c.put(ctx, fmt.Sprintf("/user/%d", id), upd, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UsersService) Delete(ctx context.Context, id int64) error {
	return s.c.delete(ctx, fmt.Sprintf("/user/%d", id))
}
