package main

import (
	"log"

	tool "github.com/sandeepkv93/storefront-admin-api/internal/tools/tokens"
)

func main() {
	if err := tool.NewRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}
