package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/barlyqqyzmet/admin/client"
	"github.com/barlyqqyzmet/admin/internal/audit"
	"github.com/barlyqqyzmet/admin/internal/views"
)

func categoriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category"},
		Short:   "Manage the category tree",
	}
	cmd.AddCommand(
		categoriesListCmd(a),
		categoriesCreateCmd(a),
		categoriesUpdateCmd(a),
		categoriesDeleteCmd(a),
		subcategoriesCmd(a),
	)
	return cmd
}

func categoriesListCmd(a *app) *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories with their subcategories",
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			cats, err := s.api.Categories.List(cmd.Context())
			if err != nil {
				return err
			}
			return printList(cmd, a, views.Categories, cats, &lf)
		}),
	}
	lf.register(cmd)
	return cmd
}

// openImage opens an image for upload. An empty path means no image.
func openImage(path string) (*client.Upload, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open image: %w", err)
	}
	return &client.Upload{Filename: filepath.Base(path), Content: f}, func() { _ = f.Close() }, nil
}

func categoriesCreateCmd(a *app) *cobra.Command {
	var image string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			upload, closeImage, err := openImage(image)
			if err != nil {
				return err
			}
			defer closeImage()

			cat, err := s.api.Categories.Create(cmd.Context(), args[0], upload)
			if err != nil {
				return err
			}
			a.record(s, cmd, audit.ActionCategoryCreated, fmt.Sprintf("category/%d", cat.ID),
				map[string]any{"name": cat.Name, "image": upload != nil})
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), cat)
			}
			success(cmd.OutOrStdout(), "Created category %q (id %d)", cat.Name, cat.ID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&image, "image", "", "image file to upload")
	return cmd
}

func categoriesUpdateCmd(a *app) *cobra.Command {
	var name, image string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a category or replace its image",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if name == "" && image == "" {
				return errors.New("nothing to update: pass --name or --image")
			}
			upload, closeImage, err := openImage(image)
			if err != nil {
				return err
			}
			defer closeImage()

			cat, err := s.api.Categories.Update(cmd.Context(), id, name, upload)
			if err != nil {
				return err
			}
			a.record(s, cmd, audit.ActionCategoryUpdated, fmt.Sprintf("category/%d", id),
				map[string]any{"name": name, "image": upload != nil})
			success(cmd.OutOrStdout(), "Updated category %d (%s)", id, cat.Name)
			return nil
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&image, "image", "", "new image file")
	return cmd
}

func categoriesDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !confirm(cmd, yes, fmt.Sprintf("Delete category %d and its subcategories?", id)) {
				return errAborted
			}
			if err := s.api.Categories.Delete(cmd.Context(), id); err != nil {
				return err
			}
			a.record(s, cmd, audit.ActionCategoryDeleted, fmt.Sprintf("category/%d", id), nil)
			success(cmd.OutOrStdout(), "Deleted category %d", id)
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func subcategoriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sub",
		Aliases: []string{"subcategories"},
		Short:   "Manage subcategories",
	}

	add := &cobra.Command{
		Use:   "add <category-id> <name>",
		Short: "Add a subcategory",
		Args:  cobra.ExactArgs(2),
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			categoryID, err := parseID(args[0])
			if err != nil {
				return err
			}
			sub, err := s.api.Categories.CreateSubcategory(cmd.Context(), categoryID, args[1])
			if err != nil {
				return err
			}
			a.record(s, cmd, audit.ActionSubcategoryCreated, fmt.Sprintf("subcategory/%d", sub.ID),
				map[string]any{"category_id": categoryID, "name": sub.Name})
			success(cmd.OutOrStdout(), "Added subcategory %q (id %d)", sub.Name, sub.ID)
			return nil
		}),
	}

	var yes bool
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a subcategory",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, args []string, s *cliSession) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !confirm(cmd, yes, fmt.Sprintf("Delete subcategory %d?", id)) {
				return errAborted
			}
			if err := s.api.Categories.DeleteSubcategory(cmd.Context(), id); err != nil {
				return err
			}
			a.record(s, cmd, audit.ActionSubcategoryDeleted, fmt.Sprintf("subcategory/%d", id), nil)
			success(cmd.OutOrStdout(), "Deleted subcategory %d", id)
			return nil
		}),
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	cmd.AddCommand(add, del)
	return cmd
}
