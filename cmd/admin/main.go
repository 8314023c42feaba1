// Command admin runs moderation operations against the reputation ledger.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"famefeed/internal/bootstrap"
	"famefeed/internal/cache"
	"famefeed/internal/config"
	"famefeed/internal/middleware"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin ban <user_id>                          - Ban a user and unpublish their posts")
	fmt.Println("  go run ./cmd/admin adjust <user_id> <area_id> <rating_id> - Apply a truth rating to a user's fame")
	fmt.Println("  go run ./cmd/admin fame <user_id>                         - Show a user's fame profile")
	fmt.Println("  go run ./cmd/admin bullshitters                           - Show the low-reputation report")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	middleware.InitLogger(cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close()

	if err := run(ctx, rt, os.Args[1], os.Args[2:]); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, rt *bootstrap.Runtime, command string, args []string) error {
	switch command {
	case "ban":
		ids, err := parseIDs(args, 1)
		if err != nil {
			return err
		}
		if err := rt.Services.Ledger.BanUser(ctx, ids[0]); err != nil {
			return err
		}
		revokeSessions(ctx, ids[0])
		fmt.Printf("User %d banned\n", ids[0])

	case "adjust":
		ids, err := parseIDs(args, 3)
		if err != nil {
			return err
		}
		adj, logout, err := rt.Services.Ledger.AdjustFame(ctx, ids[0], ids[1], ids[2])
		if err != nil {
			return err
		}
		if logout {
			revokeSessions(ctx, ids[0])
		}
		return printJSON(adj)

	case "fame":
		ids, err := parseIDs(args, 1)
		if err != nil {
			return err
		}
		profile, err := rt.Services.Ledger.FameOf(ctx, ids[0])
		if err != nil {
			return err
		}
		return printJSON(profile)

	case "bullshitters":
		groups, err := rt.Services.Moderation.Bullshitters(ctx)
		if err != nil {
			return err
		}
		return printJSON(groups)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
	}
	return nil
}

func parseIDs(args []string, n int) ([]uint, error) {
	if len(args) < n {
		return nil, fmt.Errorf("expected %d id argument(s), got %d", n, len(args))
	}
	ids := make([]uint, n)
	for i := range n {
		v, err := strconv.ParseUint(args[i], 10, 32)
		if err != nil || v == 0 {
			return nil, fmt.Errorf("invalid id %q", args[i])
		}
		ids[i] = uint(v)
	}
	return ids, nil
}

func revokeSessions(ctx context.Context, userID uint) {
	if err := cache.RevokeUser(ctx, userID); err != nil {
		log.Printf("warning: sessions of user %d not revoked: %v", userID, err)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
