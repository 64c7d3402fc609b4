// Command storefront is a terminal client for the storefront backend:
// authenticate, browse the catalog, and manage the remote cart.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gofalre.io/storefront"
	"gofalre.io/storefront/auth"
	"gofalre.io/storefront/cart"
	"gofalre.io/storefront/catalog"
	"gofalre.io/storefront/config"
	"gofalre.io/storefront/driver"
	"gofalre.io/storefront/models"
	"gofalre.io/storefront/session"
)

type app struct {
	cfg    config.Config
	logger *zap.Logger

	gate    session.Gate
	auth    auth.Repository
	catalog catalog.Repository
	engine  storefront.Service

	natsConn       *nats.Conn
	credentialPath string
}

func main() {
	a := &app{}

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Terminal client for the storefront backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown()
		},
	}

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.registerCmd(),
		a.profileCmd(),
		a.productsCmd(),
		a.productCmd(),
		a.cartCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) setup() error {
	a.cfg = config.Load()

	logger, err := newLogger(a.cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger = logger

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	a.credentialPath = filepath.Join(home, ".storefront", "credential.json")

	a.gate = session.NewGate(logger)
	a.loadCredential()

	httpClient := driver.NewHTTPClient(a.gate)
	a.auth = auth.NewRepository(a.cfg.APIBaseURL, httpClient, logger)
	a.catalog = catalog.NewRepository(a.cfg.APIBaseURL, httpClient, logger)

	if a.cfg.RedisAddr != "" {
		redisClient, err := driver.ConnectRedis(a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB, logger)
		if err != nil {
			logger.Warn("Redis unavailable, product cache disabled", zap.Error(err))
		} else {
			a.catalog = catalog.NewCached(a.catalog, redisClient, a.cfg.ProductCacheTTL, logger)
		}
	}

	if a.cfg.NATSURL != "" {
		conn, err := nats.Connect(a.cfg.NATSURL)
		if err != nil {
			logger.Warn("NATS unavailable, session bus disabled", zap.Error(err))
		} else {
			a.natsConn = conn
		}
	}

	cartRepo := cart.NewRepository(a.cfg.APIBaseURL, httpClient, logger)
	a.engine = storefront.NewService(cartRepo, a.catalog, a.gate, a.cfg.Checkout, a.natsConn, logger)

	return nil
}

func (a *app) teardown() {
	if a.engine != nil {
		a.engine.Close()
	}
	if a.natsConn != nil {
		a.natsConn.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	parsed, err := zap.ParseAtomicLevel(level)
	if err == nil {
		cfg.Level = parsed
	}
	return cfg.Build()
}

func (a *app) loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store the credential locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			credential, err := a.auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			a.gate.Set(credential)
			if err = a.saveCredential(credential); err != nil {
				return err
			}

			fmt.Println("Login successful")
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.gate.Clear()
			if err := os.Remove(a.credentialPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

func (a *app) registerCmd() *cobra.Command {
	var params auth.RegisterParams

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			credential, err := a.auth.Register(cmd.Context(), params)
			if err != nil {
				return err
			}

			a.gate.Set(credential)
			if err = a.saveCredential(credential); err != nil {
				return err
			}

			fmt.Println("Registration successful")
			return nil
		},
	}

	cmd.Flags().StringVar(&params.Name, "name", "", "display name")
	cmd.Flags().StringVar(&params.Email, "email", "", "account email")
	cmd.Flags().StringVar(&params.Password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the current user profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := a.auth.GetProfile(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s <%s>\n", profile.Name, profile.Email)
			return nil
		},
	}
}

func (a *app) productsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List catalog products",
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := a.catalog.ListProducts(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range products {
				fmt.Printf("%-24s  %-30s  $%.2f\n", p.ID, p.DisplayName(), p.Price)
			}
			return nil
		},
	}
}

func (a *app) productCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			product, err := a.catalog.GetProductByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s\n  $%.2f\n  %s\n", product.DisplayName(), product.Price, product.Description)
			return nil
		},
	}
}

func (a *app) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the shopping cart",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show cart contents and checkout summary",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.engine.Refresh(cmd.Context()); err != nil {
					return err
				}
				a.printCart()
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <productID> [quantity]",
			Short: "Add a product to the cart",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				quantity := uint64(1)
				if len(args) == 2 {
					parsed, err := strconv.ParseUint(args[1], 10, 64)
					if err != nil {
						return fmt.Errorf("invalid quantity %q", args[1])
					}
					quantity = parsed
				}
				return a.runMutation(func(ctx context.Context) storefront.Result {
					return a.engine.AddItem(ctx, args[0], quantity)
				}, cmd)
			},
		},
		&cobra.Command{
			Use:   "update <productID> <quantity>",
			Short: "Set the quantity of a cart item (0 removes it)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				quantity, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid quantity %q", args[1])
				}
				if err = a.engine.Refresh(cmd.Context()); err != nil {
					return err
				}
				return a.runMutation(func(ctx context.Context) storefront.Result {
					return a.engine.UpdateQuantity(ctx, args[0], quantity)
				}, cmd)
			},
		},
		&cobra.Command{
			Use:   "remove <productID>",
			Short: "Remove a product from the cart",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runMutation(func(ctx context.Context) storefront.Result {
					return a.engine.RemoveItem(ctx, args[0])
				}, cmd)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the cart",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runMutation(func(ctx context.Context) storefront.Result {
					return a.engine.Clear(ctx)
				}, cmd)
			},
		},
	)

	return cmd
}

func (a *app) runMutation(mutate func(context.Context) storefront.Result, cmd *cobra.Command) error {
	result := mutate(cmd.Context())
	if !result.Success {
		return errors.New(result.Error)
	}
	a.printCart()
	return nil
}

func (a *app) printCart() {
	snapshot := a.engine.Snapshot()
	if snapshot == nil || len(snapshot.Items) == 0 {
		fmt.Println("Cart is empty")
		return
	}

	for _, item := range snapshot.Items {
		price := 0.0
		if item.Price != nil {
			price = *item.Price
		}
		name := item.Name
		if name == "" {
			name = item.ProductID
		}
		fmt.Printf("%-30s  x%-3d  $%.2f\n", name, item.Quantity, price)
	}

	summary := a.engine.Summary()
	fmt.Printf("\nSubtotal (%d items): $%.2f\n", a.engine.ItemCount(), summary.Subtotal)
	if summary.Shipping == 0 {
		fmt.Println("Shipping: FREE")
	} else {
		fmt.Printf("Shipping: $%.2f\n", summary.Shipping)
	}
	fmt.Printf("Tax: $%.2f\nTotal: $%.2f\n", summary.Tax, summary.Total)
}

// loadCredential restores the session saved by a previous login. A corrupt
// file is treated as logged out and removed.
func (a *app) loadCredential() {
	data, err := os.ReadFile(a.credentialPath)
	if err != nil {
		return
	}

	var credential models.Credential
	if err = json.Unmarshal(data, &credential); err != nil || credential.Token == "" {
		a.logger.Warn("Discarding unreadable credential file", zap.Error(err))
		_ = os.Remove(a.credentialPath)
		return
	}

	a.gate.Set(&credential)
}

func (a *app) saveCredential(credential *models.Credential) error {
	if err := os.MkdirAll(filepath.Dir(a.credentialPath), 0o700); err != nil {
		return err
	}

	data, err := json.Marshal(credential)
	if err != nil {
		return err
	}
	return os.WriteFile(a.credentialPath, data, 0o600)
}
