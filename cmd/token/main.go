// Command token mints a bearer token for local testing, signed with the configured secret.
//
//	go run ./cmd/token -sub alice -perms read-user,create-user
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/sampleapi/users-service/internal/auth"
	"github.com/sampleapi/users-service/internal/config"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	subject := flag.String("sub", "dev", "token subject")
	tenant := flag.Int64("tenant", 0, "tenant id (defaults to users.default_tenant_id)")
	perms := flag.String("perms", strings.Join(auth.AllUserPermissions, ","), "comma separated permissions")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config loading failed: %v", err)
	}
	if *tenant == 0 {
		*tenant = cfg.Users.DefaultTenantID
	}
	lifetime := *ttl
	if lifetime <= 0 {
		lifetime = time.Duration(cfg.Auth.TokenTTL) * time.Minute
	}

	var list []string
	for _, p := range strings.Split(*perms, ",") {
		if p = strings.TrimSpace(p); p != "" {
			list = append(list, p)
		}
	}

	token, err := auth.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, lifetime).Issue(*subject, *tenant, list)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Fprintln(os.Stdout, token)
}
