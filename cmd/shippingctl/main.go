// shippingctl interroge et modifie les réglages de livraison hors du serveur HTTP.
//
// Usage:
//
//	shippingctl quote --item P1 --item P2:3
//	shippingctl get P1
//	shippingctl set --charge --fee 12.50 P1
//	shippingctl list --first 20
//	shippingctl reindex
package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Erreur: %v\n", err)
		os.Exit(1)
	}
}
