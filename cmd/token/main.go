// Command token issues a bearer token for an actor, for operators and scripts
// standing in for the host login flow.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"genealogy/internal/auth"
	"genealogy/internal/config"
)

func main() {
	id := flag.Int64("id", 0, "Actor id (required)")
	role := flag.String("role", string(auth.RoleViewer), "Role: administrator, editor or viewer")
	ttl := flag.Duration("ttl", 0, "Token lifetime (default: GENEALOGY_TOKEN_TTL)")
	flag.Parse()

	token, err := issue(*id, *role, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func issue(id int64, roleName string, ttl time.Duration) (string, error) {
	if id <= 0 {
		return "", errors.New("-id must be a positive actor id")
	}

	role, err := auth.ParseRole(roleName)
	if err != nil {
		return "", err
	}

	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	if ttl <= 0 {
		ttl = cfg.TokenTTL
	}
	return auth.NewIssuer(cfg.TokenSecret, nil).Issue(id, role, ttl)
}
