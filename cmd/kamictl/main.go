package main

import "kamianime/cli"

func main() {
	cli.Execute()
}
