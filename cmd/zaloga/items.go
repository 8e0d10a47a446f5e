package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List items in the local store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		search, _ := flags.GetString("q")
		warehouse, _ := flags.GetString("warehouse")
		sortBy, _ := flags.GetString("sort")
		desc, _ := flags.GetBool("desc")
		asJSON, _ := flags.GetBool("json")

		sort, err := store.ParseSort(sortBy)
		if err != nil {
			return err
		}
		items, err := current.store.List(cmd.Context(), store.Query{
			Search:     search,
			Warehouse:  warehouse,
			Sort:       sort,
			Descending: desc,
		})
		if err != nil {
			return err
		}

		if asJSON {
			if items == nil {
				items = []model.Item{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}
		return printItems(cmd.OutOrStdout(), items)
	},
}

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add an item to the local store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := itemFromFlags(cmd, args[0])
		if err != nil {
			return err
		}
		if err := item.Validate(); err != nil {
			return err
		}

		id, err := current.store.Create(cmd.Context(), item)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added item %d\n", id)
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <id> <name>",
	Short: "Replace an item's fields",
	Long: `Replace every field of an existing item. Fields without a flag are
reset to their defaults, as with a form submission.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		item, err := itemFromFlags(cmd, args[1])
		if err != nil {
			return err
		}
		if err := item.Validate(); err != nil {
			return err
		}

		n, err := current.store.Update(cmd.Context(), item.WithID(id))
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("item %d not found", id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated item %d\n", id)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete one item, or all items with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		out := cmd.OutOrStdout()

		switch {
		case all && len(args) > 0:
			return fmt.Errorf("--all takes no item id")
		case all:
			n, err := current.store.DeleteAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "deleted %d items\n", n)
			return nil
		case len(args) == 0:
			return fmt.Errorf("item id required (or --all)")
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		n, err := current.store.Delete(cmd.Context(), id)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("item %d not found", id)
		}
		fmt.Fprintf(out, "deleted item %d\n", id)
		return nil
	},
}

func init() {
	lf := listCmd.Flags()
	lf.String("q", "", "search name and description")
	lf.StringP("warehouse", "w", "", "only items in this warehouse")
	lf.StringP("sort", "s", "name", "sort by name, quantity, price or updated")
	lf.Bool("desc", false, "sort descending")
	lf.Bool("json", false, "print items as JSON")

	for _, c := range []*cobra.Command{addCmd, updateCmd} {
		f := c.Flags()
		f.Int64P("quantity", "n", 0, "quantity on hand")
		f.Float64P("price", "p", 0, "unit price")
		f.StringP("warehouse", "w", model.DefaultWarehouse, "warehouse label")
		f.String("description", "", "free-form description")
	}

	deleteCmd.Flags().Bool("all", false, "delete every item")
}

func itemFromFlags(cmd *cobra.Command, name string) (model.Item, error) {
	f := cmd.Flags()
	quantity, err := f.GetInt64("quantity")
	if err != nil {
		return model.Item{}, err
	}
	price, err := f.GetFloat64("price")
	if err != nil {
		return model.Item{}, err
	}
	warehouse, _ := f.GetString("warehouse")
	description, _ := f.GetString("description")

	return model.Item{
		Name:        name,
		Quantity:    quantity,
		Price:       price,
		Warehouse:   warehouse,
		Description: description,
	}, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid item id %q", s)
	}
	return id, nil
}

func printItems(w io.Writer, items []model.Item) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tWAREHOUSE\tUPDATED")
	for _, it := range items {
		id := "-"
		if it.ID != nil {
			id = strconv.FormatInt(*it.ID, 10)
		}
		updated := "-"
		if it.UpdatedAt != nil {
			updated = it.UpdatedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%s\t%s\n", id, it.Name, it.Quantity, it.Price, it.Warehouse, updated)
	}
	return tw.Flush()
}
