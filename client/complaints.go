package client

import (
	"context"
	"fmt"
)

type Complaint struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"user_id"`
	ListingID   int64       `json:"listing_id"`
	ListingKind ListingKind `json:"listing_type"`
	Description string      `json:"description"`
	CreatedAt   Timestamp   `json:"created_at"`
}

type ComplaintsService struct {
	c *Client
}

func (s *ComplaintsService) List(ctx context.Context) ([]Complaint, error) {
	var out []Complaint
	if err := s.c.get(ctx, "/complaints", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ComplaintsService) Delete(ctx context.Context, id int64) error {
	return s.c.delete(ctx, fmt.Sprintf("/complaints/%d", id))
}
