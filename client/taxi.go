package client

import (
	"context"
	"fmt"
)

type TaxiOrder struct {
	ID          int64     `json:"id"`
	PassengerID int64     `json:"passenger_id"`
	DriverID    int64     `json:"driver_id"`
	FromAddress string    `json:"from_address"`
	ToAddress   string    `json:"to_address"`
	Price       float64   `json:"price"`
	Status      string    `json:"status"`
	CreatedAt   Timestamp `json:"created_at"`
}

type Driver struct {
	ID             int64          `json:"id"`
	UserID         int64          `json:"user_id"`
	Name           string         `json:"name"`
	Surname        string         `json:"surname"`
	Phone          string         `json:"phone"`
	CarModel       string         `json:"car_model"`
	CarNumber      string         `json:"car_number"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	CreatedAt      Timestamp      `json:"created_at"`
}

type TaxiService struct {
	c *Client
}

func (s *TaxiService) Orders(ctx context.Context) ([]TaxiOrder, error) {
	var out []TaxiOrder
	if err := s.c.get(ctx, "/taxi/orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TaxiService) Order(ctx context.Context, id int64) (*TaxiOrder, error) {
	var o TaxiOrder
	if err := s.c.get(ctx, fmt.Sprintf("/taxi/orders/%d", id), nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *TaxiService) Drivers(ctx context.Context) ([]Driver, error) {
	var out []Driver
	if err := s.c.get(ctx, "/taxi/drivers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TaxiService) Driver(ctx context.Context, id int64) (*Driver, error) {
	var d Driver
	if err := s.c.get(ctx, fmt.Sprintf("/taxi/drivers/%d", id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// SetDriverApproval records the moderation decision for a driver.
func (s *TaxiService) SetDriverApproval(ctx context.Context, id int64, status ApprovalStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.c.put(ctx, fmt.Sprintf("/taxi/drivers/%d/approval", id), approvalRequest{Status: status}, nil)
}
