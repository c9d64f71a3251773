// Copyright © 2025 The gnls authors

package main

import "github.com/gntools/gnls/cmd"

func main() {
	cmd.Execute()
}
