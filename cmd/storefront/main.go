// Command storefront is a small CLI over the client core, mainly useful
// for poking at a running backend: sign in, inspect the cart, add items.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/felixgeelhaar/storefront"
	"github.com/felixgeelhaar/storefront/internal/config"
	"github.com/felixgeelhaar/storefront/internal/prefs"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	if os.Args[1] == "help" || os.Args[1] == "-h" || os.Args[1] == "--help" {
		printUsage()
		return
	}
	if os.Args[1] == "version" || os.Args[1] == "-v" || os.Args[1] == "--version" {
		fmt.Printf("storefront %s\n", Version)
		return
	}

	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	app, err := storefront.New(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		return err
	}

	switch command {
	case "login":
		return cmdLogin(ctx, app, args)
	case "logout":
		app.Logout(ctx)
		fmt.Println("Logged out.")
		return nil
	case "status":
		return cmdStatus(app)
	case "cart":
		return cmdCart(ctx, app, args)
	case "theme":
		return cmdTheme(app, args)
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func cmdLogin(ctx context.Context, app *storefront.App, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: storefront login <email> <password>")
	}
	user, err := app.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s\n", user.DisplayName())
	return nil
}

func cmdStatus(app *storefront.App) error {
	if user := app.Session.User(); user != nil {
		fmt.Printf("Session:  %s (%s)\n", user.DisplayName(), user.Email)
	} else {
		fmt.Println("Session:  anonymous")
	}
	if cart := app.Cart.Current(); cart != nil {
		fmt.Printf("Cart:     %d item(s)\n", cart.ItemCount())
	} else {
		fmt.Println("Cart:     empty")
	}
	fmt.Printf("Theme:    %s\n", app.Prefs.Theme())
	return nil
}

func cmdCart(ctx context.Context, app *storefront.App, args []string) error {
	if len(args) == 0 {
		args = []string{"show"}
	}

	switch args[0] {
	case "show":
		cart := app.Cart.Current()
		if cart == nil || cart.ItemCount() == 0 {
			fmt.Println("Cart is empty.")
			return nil
		}
		for _, item := range cart.Items {
			fmt.Printf("  %3dx %-30s %s  (item %d)\n",
				item.Quantity, item.Product.Name, item.Product.Price, item.ID)
		}
		return nil
	case "add":
		if len(args) != 3 {
			return fmt.Errorf("usage: storefront cart add <product-id> <quantity>")
		}
		productID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[1])
		}
		quantity, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[2])
		}
		if err := app.Cart.Add(ctx, productID, quantity); err != nil {
			return err
		}
		fmt.Printf("Added. Cart now holds %d item(s).\n", app.Cart.Current().ItemCount())
		return nil
	case "remove":
		if len(args) != 2 {
			return fmt.Errorf("usage: storefront cart remove <item-id>")
		}
		itemID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid item id %q", args[1])
		}
		return app.Cart.Remove(ctx, itemID)
	default:
		return fmt.Errorf("unknown cart command: %s", args[0])
	}
}

func cmdTheme(app *storefront.App, args []string) error {
	if len(args) == 0 {
		fmt.Println(app.Prefs.Theme())
		return nil
	}
	if err := app.Prefs.SetTheme(prefs.Theme(args[0])); err != nil {
		return err
	}
	fmt.Printf("Theme set to %s\n", args[0])
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func printUsage() {
	fmt.Println(`Storefront - client core CLI

Usage:
  storefront <command> [arguments]

Session Commands:
  login <email> <password>   Sign in (merges any anonymous cart)
  logout                     Sign out and clear local state
  status                     Show session, cart, and theme

Cart Commands:
  cart show                  List cart lines
  cart add <product> <qty>   Add a product
  cart remove <item>         Remove a cart line

Other Commands:
  theme [light|dark]         Show or set the UI theme
  version                    Print version`)
}
