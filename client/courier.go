package client

import (
	"context"
	"fmt"
)

type CourierOrder struct {
	ID          int64     `json:"id"`
	SenderID    int64     `json:"sender_id"`
	CourierID   int64     `json:"courier_id"`
	FromAddress string    `json:"from_address"`
	ToAddress   string    `json:"to_address"`
	Price       float64   `json:"price"`
	Comment     string    `json:"comment"`
	Status      string    `json:"status"`
	CreatedAt   Timestamp `json:"created_at"`
}

type Courier struct {
	ID             int64          `json:"id"`
	UserID         int64          `json:"user_id"`
	Name           string         `json:"name"`
	Surname        string         `json:"surname"`
	Phone          string         `json:"phone"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	CreatedAt      Timestamp      `json:"created_at"`
}

type CourierService struct {
	c *Client
}

func (s *CourierService) Orders(ctx context.Context) ([]CourierOrder, error) {
	var out []CourierOrder
	if err := s.c.get(ctx, "/courier/orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CourierService) Order(ctx context.Context, id int64) (*CourierOrder, error) {
	var o CourierOrder
	if err := s.c.get(ctx, fmt.Sprintf("/courier/orders/%d", id), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *CourierService) Couriers(ctx context.Context) ([]Courier, error) {
	var out []Courier
	if err := s.c.get(ctx, "/courier/couriers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CourierService) Courier(ctx context.Context, id int64) (*Courier, error) {
	var c Courier
	if err := s.c.get(ctx, fmt.Sprintf("/courier/couriers/%d", id), nil, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// SetCourierApproval records the moderation decision for a courier.
func (s *CourierService) SetCourierApproval(ctx context.Context, id int64, status ApprovalStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.c.put(ctx, fmt.Sprintf("/courier/couriers/%d/approval", id), approvalRequest{Status: status}, nil)
}
