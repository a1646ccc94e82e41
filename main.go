package main

import "github.com/portfolio-cms/apiserver/cmd"

func main() {
	cmd.Execute()
}
