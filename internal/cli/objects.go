package cli

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/davstore/pkg/dav"
	"github.com/mesh-intelligence/davstore/pkg/types"
)

// storeError classifies an error returned by the Database.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, types.ErrDuplicateProperty),
		errors.Is(err, types.ErrDuplicateUUID),
		errors.Is(err, types.ErrInvalidName),
		errors.Is(err, types.ErrInvalidTableID):
		return userError("%s: %w", op, err)
	default:
		return sysError("%s: %w", op, err)
	}
}

// lookup returns the object with the uuid in arg or a user error when
// there is none.
func (a *app) lookup(cmd *cobra.Command, arg string) (*dav.TableObject, error) {
	id, err := parseUUID(arg)
	if err != nil {
		return nil, err
	}
	db, err := a.open()
	if err != nil {
		return nil, err
	}
	t, err := db.GetTableObject(cmd.Context(), id)
	if err != nil {
		return nil, storeError("get table object", err)
	}
	if t == nil {
		return nil, userError("table object %s: %w", id, types.ErrNotFound)
	}
	return t, nil
}

// parseProps turns name=value pairs into properties, keeping the first
// occurrence of each name.
func parseProps(pairs []string) ([]*dav.Property, error) {
	props := make([]*dav.Property, 0, len(pairs))
	seen := make(map[string]bool, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, userError("invalid property %q: want name=value", pair)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		props = append(props, dav.NewProperty(name, value))
	}
	return props, nil
}

func newCreateCmd(a *app) *cobra.Command {
	var (
		tableID int
		id      string
		props   []string
		file    string
	)
	cmd := &cobra.Command{
		Use:   "create --table <id> [--uuid <uuid>] [--prop name=value]... [--file <path>]",
		Short: "Create a table object",
		Long: `Create persists a new table object in state New and prints it.

Example:
  davstore create --table 12 --prop title=Groceries --prop done=false
  davstore create --table 7 --file ./avatar.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			objectID := uuid.New()
			if id != "" {
				parsed, err := parseUUID(id)
				if err != nil {
					return err
				}
				objectID = parsed
			}
			ps, err := parseProps(props)
			if err != nil {
				return err
			}
			db, err := a.open()
			if err != nil {
				return err
			}

			var t *dav.TableObject
			switch {
			case file != "":
				t, err = db.CreateWithFile(ctx, objectID, tableID, file)
				if err != nil {
					return storeError("create table object", err)
				}
				for _, p := range ps {
					if err := t.SetPropertyValue(ctx, p.Name, p.Value); err != nil {
						return storeError("set property", err)
					}
				}
			case len(ps) > 0:
				t, err = db.CreateWithProperties(ctx, objectID, tableID, ps)
			default:
				t, err = db.CreateWithUUID(ctx, objectID, tableID)
			}
			if err != nil {
				return storeError("create table object", err)
			}
			return writeJSON(cmd.OutOrStdout(), viewOf(t))
		},
	}
	cmd.Flags().IntVar(&tableID, "table", 0, "table id (required)")
	cmd.Flags().StringVar(&id, "uuid", "", "object uuid (default: random)")
	cmd.Flags().StringArrayVar(&props, "prop", nil, "property as name=value (repeatable)")
	cmd.Flags().StringVar(&file, "file", "", "file to attach")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <uuid>",
		Short: "Print a table object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.lookup(cmd, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), viewOf(t))
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var (
		tableID        int
		includeDeleted bool
	)
	cmd := &cobra.Command{
		Use:   "list [--table <id>] [--deleted]",
		Short: "List table objects in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.open()
			if err != nil {
				return err
			}
			var objects []*dav.TableObject
			if cmd.Flags().Changed("table") {
				objects, err = db.GetTableObjects(cmd.Context(), tableID, includeDeleted)
			} else {
				objects, err = db.GetAllTableObjects(cmd.Context(), includeDeleted)
			}
			if err != nil {
				return storeError("list table objects", err)
			}
			return writeJSON(cmd.OutOrStdout(), viewsOf(objects))
		},
	}
	cmd.Flags().IntVar(&tableID, "table", 0, "only objects of this table")
	cmd.Flags().BoolVar(&includeDeleted, "deleted", false, "include objects marked deleted")
	return cmd
}

func newSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <uuid> <name> <value>",
		Short: "Set a property of a table object",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.lookup(cmd, args[0])
			if err != nil {
				return err
			}
			if err := t.SetPropertyValue(cmd.Context(), args[1], args[2]); err != nil {
				return storeError("set property", err)
			}
			return writeJSON(cmd.OutOrStdout(), viewOf(t))
		},
	}
}

func newAttachCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <uuid> <path>",
		Short: "Attach or replace the file of a table object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.lookup(cmd, args[0])
			if err != nil {
				return err
			}
			if err := t.SetFileFromPath(cmd.Context(), args[1]); err != nil {
				return storeError("attach file", err)
			}
			return writeJSON(cmd.OutOrStdout(), viewOf(t))
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <uuid> <status>",
		Short: "Change the upload status of a table object",
		Long: `Status moves a table object to another upload status.

Valid statuses: uptodate, new, updated, deleted, noupload`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := types.ParseUploadStatus(args[1])
			if err != nil {
				return userError("%w", err)
			}
			t, err := a.lookup(cmd, args[0])
			if err != nil {
				return err
			}
			if err := t.ChangeUploadStatus(cmd.Context(), status); err != nil {
				return storeError("change upload status", err)
			}
			return writeJSON(cmd.OutOrStdout(), viewOf(t))
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	var now bool
	cmd := &cobra.Command{
		Use:   "delete <uuid> [--now]",
		Short: "Delete a table object",
		Long: `Delete removes a table object.

When logged in, the object is marked deleted so the deletion can be
uploaded; otherwise, or with --now, it is removed at once together with
its properties and attached file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.lookup(cmd, args[0])
			if err != nil {
				return err
			}
			if now {
				err = t.DeleteImmediately(cmd.Context())
			} else {
				err = t.Delete(cmd.Context())
			}
			if err != nil {
				return storeError("delete table object", err)
			}
			return writeJSON(cmd.OutOrStdout(), viewOf(t))
		},
	}
	cmd.Flags().BoolVar(&now, "now", false, "remove immediately regardless of login state")
	return cmd
}

func newPendingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List table objects waiting for upload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.open()
			if err != nil {
				return err
			}
			objects, err := db.GetPendingTableObjects(cmd.Context())
			if err != nil {
				return storeError("list pending table objects", err)
			}
			return writeJSON(cmd.OutOrStdout(), viewsOf(objects))
		},
	}
}
