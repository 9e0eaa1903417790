package main

import "github.com/ivlev/beat2video/internal/cli"

// Заполняется через -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cli.Main(version)
}
