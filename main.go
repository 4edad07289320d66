package main

import "github.com/nrad-K/trend-crawler/cmd"

func main() {
	cmd.Execute()
}
