package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/client"
	"github.com/ranfysvalle02/modal-JWTauth-demo/internal/client/tokencache"
)

const usage = `Usage: authctl [flags] <command>

Commands:
  register   create an account (needs --username and --password)
  login      authenticate and cache the token pair
  greet      call the protected endpoint with the cached tokens
  whoami     print the cached display username
  logout     revoke the refresh token and clear the cache

Flags:
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("authctl", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}

	serverURL := fs.StringP("server", "s", "http://localhost:8000", "Auth API base URL")
	cacheDir := fs.StringP("cache-dir", "c", defaultCacheDir(), "Directory for the token cache")
	username := fs.StringP("username", "u", "", "Username")
	password := fs.StringP("password", "p", "", "Password")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected exactly one command, got %d", fs.NArg())
	}

	cache, err := tokencache.NewFileCache(*cacheDir)
	if err != nil {
		return err
	}

	c, err := client.New(client.Config{BaseURL: *serverURL, Cache: cache})
	if err != nil {
		return err
	}

	ctx := context.Background()

	switch cmd := fs.Arg(0); cmd {
	case "register":
		if err := c.Register(ctx, *username, *password); err != nil {
			return err
		}
		fmt.Println("registered ok")
	case "login":
		if err := c.Login(ctx, *username, *password); err != nil {
			return err
		}
		fmt.Println("logged in ok")
	case "greet":
		message, err := c.Protected(ctx)
		if err != nil {
			return err
		}
		fmt.Println(message)
	case "whoami":
		name, err := c.Username()
		if err != nil {
			return err
		}
		if name == "" {
			fmt.Println("not logged in")
			return nil
		}
		fmt.Println(name)
	case "logout":
		if err := c.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("logged out ok")
	default:
		fs.Usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}

	return nil
}

func defaultCacheDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".authctl"
	}
	return filepath.Join(base, "authctl")
}
