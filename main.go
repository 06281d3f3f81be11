package main

import (
	"github.com/dreamerjackson/shopcrawler/cmd"
)

func main() {
	cmd.Execute()
}
