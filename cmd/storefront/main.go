package main

import "github.com/Esataydin/nexus-cart-quest/internal/cli"

func main() {
	cli.Execute()
}
