package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/restock/internal/coordinator"
	"github.com/zjrosen/restock/internal/restock/domain"
)

func init() {
	startCmd.Flags().String("name", "", "session name (default: date-stamped)")

	addCmd.Flags().String("name", "", "product name")
	addCmd.Flags().Int("qty", 0, "quantity to reorder")
	addCmd.Flags().String("supplier-id", "", "supplier identifier")
	addCmd.Flags().String("supplier", "", "supplier display name")
	addCmd.Flags().String("email", "", "supplier contact email")
	addCmd.Flags().String("notes", "", "free-form notes for this line")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("qty")
	_ = addCmd.MarkFlagRequired("email")

	updateCmd.Flags().String("name", "", "new product name")
	updateCmd.Flags().Int("qty", 0, "new quantity")
	updateCmd.Flags().String("supplier", "", "new supplier display name")
	updateCmd.Flags().String("email", "", "new supplier contact email")
	updateCmd.Flags().String("notes", "", "new notes")

	rootCmd.AddCommand(startCmd, addCmd, removeCmd, updateCmd, renameCmd,
		readyCmd, completeCmd, flushCmd, showCmd, listCmd)
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a new restock session (or resume the unfinished one)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCoordinator(cmd, func(coord *coordinator.Coordinator) coordinator.CommandResult {
			name, _ := cmd.Flags().GetString("name")
			return coord.Start(cmd.Context(), name)
		})
	},
}

var addCmd = &cobra.Command{
	Use:   "add PRODUCT_ID",
	Short: "Add a product line to the current draft (replaces an existing line for the product)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCoordinator(cmd, func(coord *coordinator.Coordinator) coordinator.CommandResult {
			name, _ := cmd.Flags().GetString("name")
			qty, _ := cmd.Flags().GetInt("qty")
			supplierID, _ := cmd.Flags().GetString("supplier-id")
			supplier, _ := cmd.Flags().GetString("supplier")
			email, _ := cmd.Flags().GetString("email")
			notes, _ := cmd.Flags().GetString("notes")
			return coord.AddItem(cmd.Context(), domain.ItemInput{
				ProductID:     args[0],
				ProductName:   name,
				Quantity:      qty,
				SupplierID:    supplierID,
				SupplierName:  supplier,
				SupplierEmail: email,
				Notes:         notes,
			})
		})
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove PRODUCT_ID",
	Short: "Remove a product line from the current draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCoordinator(cmd, func(coord *coordinator.Coordinator) coordinator.CommandResult {
			return coord.RemoveItem(cmd.Context(), args[0])
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update PRODUCT_ID",
	Short: "Update fields of an existing line (allowed until the session is sent)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCoordinator(cmd, func(coord *coordinator.Coordinator) coordinator.CommandResult {
			var update domain.ItemUpdate
			if cmd.Flags().Changed("name") {
				v, _ := cmd.Flags().GetString("name")
				update.ProductName = &v
			}
			if cmd.Flags().Changed("qty") {
				v, _ := cmd.Flags().GetInt("qty")
				update.Quantity = &v
			}
			if cmd.Flags().Changed("supplier") {
				v, _ := cmd.Flags().GetString("supplier")
				update.SupplierName = &v
			}
			if cmd.Flags().Changed("email") {
				v, _ := cmd.Flags().GetString("email")
				update.SupplierEmail = &v
			}
			if cmd.Flags().Changed("notes") {
				v, _ := cmd.Flags().GetString("notes")
				update.Notes = &v
			}
			return coord.UpdateItem(cmd.Context(), args[0], update)
		})
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename NAME",
	Short: "Rename the current session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCoordinator(cmd, func(coord *coordinator.Coordinator) coordinator.CommandResult {
			return coord.Rename(cmd.Context(), args[0])
		})
	},
}

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "Freeze the draft and mark emails generated",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCoordinator(cmd, func(coord *coordinator.Coordinator) coordinator.CommandResult {
			return coord.MarkReady(cmd.Context())
		})
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Mark the supplier emails sent and retire the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCoordinator(cmd, func(coord *coordinator.Coordinator) coordinator.CommandResult {
			return coord.MarkCompleted(cmd.Context())
		})
	},
}

var flushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Retry remote writes that failed earlier",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCoordinator(cmd, func(coord *coordinator.Coordinator) coordinator.CommandResult {
			return coord.Flush(cmd.Context())
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close(cmd.Context())

		session := rt.coord.Current()
		if session == nil {
			fmt.Println("no active session; run 'restock start'")
			return nil
		}
		printSession(session)
		if rt.coord.RetryPending() {
			fmt.Println("note: some changes have not reached the store; run 'restock flush'")
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close(cmd.Context())

		sessions, err := rt.coord.Sessions(cmd.Context())
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("no sessions")
			return nil
		}
		for _, session := range sessions {
			fmt.Printf("%s  %-16s  %2d items  %s  %s\n",
				session.CreatedAt().Format("2006-01-02"),
				session.Status(),
				session.ItemCount(),
				session.ID(),
				session.Name(),
			)
		}
		return nil
	},
}

// withCoordinator runs one coordinator command under a wired runtime and
// reports the result. A failed command with retained local state exits
// non-zero but tells the user what the device still holds.
func withCoordinator(cmd *cobra.Command, run func(*coordinator.Coordinator) coordinator.CommandResult) error {
	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close(cmd.Context())

	res := run(rt.coord)
	if res.Success {
		if res.Session != nil {
			printSession(res.Session)
		}
		return nil
	}

	if res.RetryPending {
		fmt.Fprintln(os.Stderr, "saved on this device; the store did not get the change. Run 'restock flush' to retry.")
	}
	return res.Err
}

func printSession(session *domain.RestockSession) {
	fmt.Printf("%s (%s)\n", session.Name(), session.Status())
	fmt.Printf("  id: %s\n", session.ID())
	for _, item := range session.Items() {
		line := fmt.Sprintf("  %-12s  x%-4d  %s <%s>",
			item.ProductID(), item.Quantity(), item.ProductName(), item.SupplierEmail())
		if item.Notes() != "" {
			line += "  (" + item.Notes() + ")"
		}
		fmt.Println(line)
	}
}
