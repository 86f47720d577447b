package client

import (
	"context"
	"fmt"
	"strings"
)

const categoryPath = "/category"

type Category struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	ImagePath     string        `json:"image_path"`
	Subcategories []Subcategory `json:"subcategories"`
}

type Subcategory struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
}

// CategoriesService manages the category tree. The tree is read through the
// response cache when the client has one.
type CategoriesService struct {
	c *Client
}

func (s *CategoriesService) List(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := s.c.getCached(ctx, categoryPath, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create uploads a new category with an optional image.
func (s *CategoriesService) Create(ctx context.Context, name string, image *Upload) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category %w", ErrNameRequired)
	}
	var out Category
	if err := s.c.post(ctx, categoryPath, categoryForm(name, image), &out); err != nil {
		return nil, err
	}
	s.c.invalidate(categoryPath)
	return &out, nil
}

// Update renames a category and replaces its image when one is given.
func (s *CategoriesService) Update(ctx context.Context, id int64, name string, image *Upload) (*Category, error) {
	var out Category
	if err := s.c.put(ctx, fmt.Sprintf("%s/%d", categoryPath, id), categoryForm(strings.TrimSpace(name), image), &out); err != nil {
		return nil, err
	}
	s.c.invalidate(categoryPath)
	return &out, nil
}

func (s *CategoriesService) Delete(ctx context.Context, id int64) error {
	if err := s.c.delete(ctx, fmt.Sprintf("%s/%d", categoryPath, id)); err != nil {
		return err
	}
	s.c.invalidate(categoryPath)
	return nil
}

type subcategoryRequest struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
}

func (s *CategoriesService) CreateSubcategory(ctx context.Context, categoryID int64, name string) (*Subcategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("subcategory %w", ErrNameRequired)
	}
	var out Subcategory
	if err := s.c.post(ctx, "/subcategory", subcategoryRequest{CategoryID: categoryID, Name: name}, &out); err != nil {
		return nil, err
	}
	s.c.invalidate(categoryPath)
	return &out, nil
}

func (s *CategoriesService) DeleteSubcategory(ctx context.Context, id int64) error {
	if err := s.c.delete(ctx, fmt.Sprintf("/subcategory/%d", id)); err != nil {
		return err
	}
	s.c.invalidate(categoryPath)
	return nil
}

func categoryForm(name string, image *Upload) *Form {
	f := NewForm()
	if name != "" {
		f.Field("name", name)
	}
	if image != nil && image.Content != nil {
		f.File("image", image.Filename, image.Content)
	}
	return f
}
