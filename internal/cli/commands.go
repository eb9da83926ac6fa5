// Package cli provides the Cobra-based storefront CLI.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Esataydin/nexus-cart-quest/internal/admin"
	"github.com/Esataydin/nexus-cart-quest/internal/cart"
	"github.com/Esataydin/nexus-cart-quest/internal/catalog"
	"github.com/Esataydin/nexus-cart-quest/internal/checkout"
	"github.com/Esataydin/nexus-cart-quest/internal/domain"
	"github.com/Esataydin/nexus-cart-quest/internal/orders"
	"github.com/Esataydin/nexus-cart-quest/internal/remote"
	"github.com/Esataydin/nexus-cart-quest/internal/session"
)

type app struct {
	sessions *session.Manager
	client   *remote.Client
	cart     *cart.State
	checkout *checkout.Service
	catalog  *catalog.Service
	orders   *orders.Service
	admin    *admin.Service
}

var (
	rootCmd = &cobra.Command{
		Use:           "storefront",
		Short:         "Browse products, build a cart and place orders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()
			return setupApp()
		},
	}

	theApp *app
)

func setupLogging() {
	lvl := slog.LevelInfo
	switch strings.ToLower(viper.GetString("log-level")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	slog.SetDefault(slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}),
	))
}

func setupApp() error {
	// tests inject their own wiring
	if theApp != nil {
		return nil
	}

	sessionFile := viper.GetString("session-file")
	if sessionFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("os.UserConfigDir: %w", err)
		}
		sessionFile = filepath.Join(dir, "storefront", "session.json")
	}

	sessions := session.NewManager(session.NewFileStore(sessionFile))
	if err := sessions.Restore(); err != nil {
		slog.Warn("could not restore session, starting signed out", "err", err)
	}

	client := remote.New(viper.GetString("base-url"), sessions)
	cartState := cart.NewState(client.Cart(), sessions)

	theApp = &app{
		sessions: sessions,
		client:   client,
		cart:     cartState,
		checkout: checkout.NewService(client.Orders(), cartState, sessions),
		catalog:  catalog.NewService(client.Catalog()),
		orders:   orders.NewService(client.Orders(), sessions),
		admin:    admin.NewService(client.Admin(), sessions),
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().String("base-url", "http://localhost:8080", "shop backend base URL")
	rootCmd.PersistentFlags().String("session-file", "", "path of the persisted session file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("base-url", rootCmd.PersistentFlags().Lookup("base-url"))
	_ = viper.BindPFlag("session-file", rootCmd.PersistentFlags().Lookup("session-file"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.SetEnvPrefix("STOREFRONT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(loginCmd(), logoutCmd(), productsCmd(), cartCmd(), checkoutCmd(), ordersCmd(), adminCmd())
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", renderFailure(err))
		os.Exit(1)
	}
}

func loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and persist the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := theApp.client.Auth().Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			err = theApp.sessions.Establish(session.Session{
				Email: creds.Email,
				Role:  session.Role(creds.Role),
				Token: creds.Token,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", creds.Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and drop the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := theApp.sessions.SignOut(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func productsCmd() *cobra.Command {
	var category, search string
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products, optionally filtered by category and search term",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := theApp.catalog.List(cmd.Context(), catalog.Filter{
				Category: category,
				Search:   search,
			})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
			for _, p := range list {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Category, p.Price, p.Stock)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "exact category filter")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive name/description filter")

	cmd.AddCommand(&cobra.Command{
		Use:   "categories",
		Short: "List the distinct categories from the last unfiltered fetch",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := theApp.catalog.List(cmd.Context(), catalog.Filter{}); err != nil {
				return err
			}
			for _, c := range theApp.catalog.Categories() {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	})
	return cmd
}

func cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and mutate the shopping cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := theApp.cart.Load(cmd.Context()); err != nil {
				return err
			}
			printCart(cmd, theApp.cart.Snapshot())
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <product-id> [quantity]",
		Short: "Add a product to the cart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("product-id must be an integer: %w", err)
			}
			quantity := 1
			if len(args) == 2 {
				if quantity, err = strconv.Atoi(args[1]); err != nil {
					return fmt.Errorf("quantity must be an integer: %w", err)
				}
			}
			if err := theApp.cart.AddItem(cmd.Context(), productID, quantity); err != nil {
				return err
			}
			printCart(cmd, theApp.cart.Snapshot())
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <line-id> <quantity>",
		Short: "Change a line's quantity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity must be an integer: %w", err)
			}
			if err := theApp.cart.SetQuantity(cmd.Context(), args[0], quantity); err != nil {
				return err
			}
			printCart(cmd, theApp.cart.Snapshot())
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <line-id>",
		Short: "Remove one line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := theApp.cart.RemoveLine(cmd.Context(), args[0]); err != nil {
				return err
			}
			printCart(cmd, theApp.cart.Snapshot())
			return nil
		},
	}

	removeProduct := &cobra.Command{
		Use:   "remove-product <product-id>",
		Short: "Remove the line holding a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("product-id must be an integer: %w", err)
			}
			if err := theApp.cart.RemoveProduct(cmd.Context(), productID); err != nil {
				return err
			}
			printCart(cmd, theApp.cart.Snapshot())
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Remove every line from the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := theApp.cart.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cart cleared")
			return nil
		},
	}

	cmd.AddCommand(add, set, remove, removeProduct, clear)
	return cmd
}

func checkoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Convert the cart into an order",
		RunE: func(cmd *cobra.Command, args []string) error {
			// load first so the precondition check sees the server's view
			if err := theApp.cart.Load(cmd.Context()); err != nil {
				return err
			}
			order, err := theApp.checkout.Checkout(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s placed: %d items, %s\n",
				order.ID, order.TotalItems, order.Total)
			return nil
		},
	}
}

func ordersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List placed orders, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := theApp.orders.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, o := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %d items  %s\n",
					o.CreatedAt.Format("2006-01-02 15:04"), o.ID, o.TotalItems, o.Total)
				for _, item := range o.Items {
					fmt.Fprintf(cmd.OutOrStdout(), "    %dx %s (%s) @ %s = %s\n",
						item.Quantity, item.ProductName, item.ProductCategory,
						item.UnitPrice, item.LineTotal)
				}
			}
			return nil
		},
	}
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage the product catalog (requires the admin role)",
	}

	var draft struct {
		name, description, category, price string
		stock                              int
	}
	draftFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&draft.name, "name", "", "product name")
		c.Flags().StringVar(&draft.description, "description", "", "product description")
		c.Flags().StringVar(&draft.category, "category", "", "product category")
		c.Flags().StringVar(&draft.price, "price", "", "unit price, e.g. 19.99")
		c.Flags().IntVar(&draft.stock, "stock", 0, "units in stock")
		_ = c.MarkFlagRequired("name")
		_ = c.MarkFlagRequired("category")
		_ = c.MarkFlagRequired("price")
	}
	parseDraft := func() (domain.ProductDraft, error) {
		price, err := domain.MoneyFromString(draft.price)
		if err != nil {
			return domain.ProductDraft{}, fmt.Errorf("price must be a decimal amount: %w", err)
		}
		return domain.ProductDraft{
			Name:        draft.name,
			Description: draft.description,
			Category:    draft.category,
			Price:       price,
			Stock:       draft.stock,
		}, nil
	}

	create := &cobra.Command{
		Use:   "create-product",
		Short: "Add a product to the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDraft()
			if err != nil {
				return err
			}
			product, err := theApp.admin.CreateProduct(cmd.Context(), d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "product %d created: %s\n", product.ID, product.Name)
			return nil
		},
	}
	draftFlags(create)

	update := &cobra.Command{
		Use:   "update-product <product-id>",
		Short: "Replace a product's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("product-id must be an integer: %w", err)
			}
			d, err := parseDraft()
			if err != nil {
				return err
			}
			product, err := theApp.admin.UpdateProduct(cmd.Context(), productID, d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "product %d updated: %s\n", product.ID, product.Name)
			return nil
		},
	}
	draftFlags(update)

	del := &cobra.Command{
		Use:   "delete-product <product-id>",
		Short: "Remove a product from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("product-id must be an integer: %w", err)
			}
			if err := theApp.admin.DeleteProduct(cmd.Context(), productID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "product %d deleted\n", productID)
			return nil
		},
	}

	cmd.AddCommand(create, update, del)
	return cmd
}

func printCart(cmd *cobra.Command, c domain.Cart) {
	if c.IsEmpty() {
		fmt.Fprintln(cmd.OutOrStdout(), "cart is empty")
		return
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LINE\tPRODUCT\tQTY\tUNIT\tSUBTOTAL")
	for _, l := range c.Lines {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", l.ID, l.ProductName, l.Quantity, l.UnitPrice, l.Subtotal)
	}
	fmt.Fprintf(w, "\t\t%d\t\t%s\n", c.TotalItems, c.Total)
	w.Flush()
}

// renderFailure maps a structured failure to the human-readable message the
// shopper sees.
func renderFailure(err error) string {
	f, ok := domain.AsFailure(err)
	if !ok {
		return err.Error()
	}

	switch f.Kind {
	case domain.FailureAuthRequired:
		return "you are not signed in, run 'storefront login' first"
	case domain.FailureValidation:
		return "request rejected: " + f.Message
	case domain.FailureNotFound:
		return "not found: " + f.Message
	case domain.FailureConflict:
		return "conflict, re-check your cart: " + f.Message
	case domain.FailurePermission:
		return "you do not have permission to do that"
	case domain.FailureTransient:
		return "the shop is unreachable right now, try again: " + f.Message
	default:
		return f.Message
	}
}
