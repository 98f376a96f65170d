package main

import "github.com/KruglovEgor/RestoStats/internal/cli"

func main() {
	cli.Execute()
}
