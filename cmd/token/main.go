// Command token issues a signed service token for a named client, for
// operators wiring up a bot or cron against the protected endpoints.
package main

import (
	"flag"
	"fmt"
	"log"

	"intel-server/internal/auth"
	"intel-server/internal/shared/config"
)

func main() {
	name := flag.String("name", "", "service client name to embed in the token")
	flag.Parse()

	if *name == "" {
		log.Fatal("usage: token -name <client-name>")
	}

	if err := config.Init(); err != nil {
		log.Fatalf("failed to initialize config: %v", err)
	}

	token, err := auth.GenerateServiceToken(*name)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}

	fmt.Println(token)
}
