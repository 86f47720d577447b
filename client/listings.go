package client

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

// ListingKind names one of the six backend listing resources.
type ListingKind string

const (
	KindService ListingKind = "service"
	KindAd      ListingKind = "ad"
	KindWork    ListingKind = "work"
	KindWorkAd  ListingKind = "work_ad"
	KindRent    ListingKind = "rent"
	KindRentAd  ListingKind = "rent_ad"
)

// ListingCategory groups kinds by what is being traded.
type ListingCategory string

const (
	CategoryService ListingCategory = "service"
	CategoryWork    ListingCategory = "work"
	CategoryRent    ListingCategory = "rent"
)

// Variant tells offers apart from requests.
type Variant string

const (
	VariantOffer Variant = "offer"
	VariantSeek  Variant = "seek"
)

type kindInfo struct {
	category ListingCategory
	variant  Variant
}

var kindTable = map[ListingKind]kindInfo{
	KindService: {CategoryService, VariantOffer},
	KindAd:      {CategoryService, VariantSeek},
	KindWork:    {CategoryWork, VariantOffer},
	KindWorkAd:  {CategoryWork, VariantSeek},
	KindRent:    {CategoryRent, VariantOffer},
	KindRentAd:  {CategoryRent, VariantSeek},
}

// Kinds returns every listing kind in a stable order.
func Kinds() []ListingKind {
	return []ListingKind{KindService, KindAd, KindWork, KindWorkAd, KindRent, KindRentAd}
}

// ParseKind validates a kind name.
func ParseKind(s string) (ListingKind, error) {
	k := ListingKind(s)
	if _, ok := kindTable[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

func (k ListingKind) Category() ListingCategory { return kindTable[k].category }
func (k ListingKind) Variant() Variant          { return kindTable[k].variant }

type Image struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// Listing is the shape shared by all six listing resources.
type Listing struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Address       string    `json:"address"`
	Price         float64   `json:"price"`
	CategoryID    int64     `json:"category_id"`
	SubcategoryID int64     `json:"subcategory_id"`
	Images        []Image   `json:"images"`
	AvgRating     float64   `json:"avg_rating"`
	Status        string    `json:"status"`
	CreatedAt     Timestamp `json:"created_at"`
}

// UnifiedListing is a listing of any kind tagged with where it came from.
type UnifiedListing struct {
	Listing
	Kind     ListingKind     `json:"kind"`
	Category ListingCategory `json:"category"`
	Variant  Variant         `json:"variant"`
	Key      string          `json:"key"`
}

func unify(kind ListingKind, l Listing) UnifiedListing {
	return UnifiedListing{
		Listing:  l,
		Kind:     kind,
		Category: kind.Category(),
		Variant:  kind.Variant(),
		Key:      fmt.Sprintf("%s-%d", kind, l.ID),
	}
}

type ListingsService struct {
	c *Client
}

func (s *ListingsService) List(ctx context.Context, kind ListingKind) ([]Listing, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	var out []Listing
	if err := s.c.get(ctx, "/"+string(kind), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ListingsService) Get(ctx context.Context, kind ListingKind, id int64) (*UnifiedListing, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	var l Listing
	if err := s.c.get(ctx, fmt.Sprintf("/%s/%d", kind, id), nil, &l); err != nil {
		return nil, err
	}
	u := unify(kind, l)
	return &u, nil
}

func (s *ListingsService) Delete(ctx context.Context, kind ListingKind, id int64) error {
	if _, err := ParseKind(string(kind)); err != nil {
		return err
	}
	return s.c.delete(ctx, fmt.Sprintf("/%s/%d", kind, id))
}

// Unified fetches all six kinds in parallel and merges them newest first.
// The first failing fetch cancels the rest and fails the whole call.
func (s *ListingsService) Unified(ctx context.Context) ([]UnifiedListing, error) {
	kinds := Kinds()
	results := make([][]Listing, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			items, err := s.List(gctx, kind)
			if err != nil {
				return fmt.Errorf("list %s: %w", kind, err)
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []UnifiedListing
	for i, kind := range kinds {
		for _, l := range results[i] {
			merged = append(merged, unify(kind, l))
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if !a.CreatedAt.Equal(b.CreatedAt.Time) {
			return a.CreatedAt.After(b.CreatedAt.Time)
		}
		return a.Key < b.Key
	})
	return merged, nil
}
