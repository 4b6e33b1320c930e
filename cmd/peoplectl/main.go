package main

import (
	"log"

	_ "github.com/lib/pq"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}
