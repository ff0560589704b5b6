package main

import "github.com/naka-gawa/git-churn/cmd"

func main() {
	cmd.Execute()
}
