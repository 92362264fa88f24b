package main

import "github.com/jengzang/trafficcams/internal/cli"

func main() {
	cli.Execute()
}
