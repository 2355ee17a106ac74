// Command admintoken mints a JWT for the admin dashboard, signed with
// ADMIN_JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/saturnino-fabrica-de-software/selfielens/internal/admin"
)

func main() {
	subject := flag.String("sub", "admin", "Token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	secret := os.Getenv("ADMIN_JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "error: ADMIN_JWT_SECRET is not set")
		os.Exit(1)
	}

	token, err := admin.NewJWTService(secret, admin.DefaultIssuer, *ttl).GenerateToken(*subject, admin.RoleAdmin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
