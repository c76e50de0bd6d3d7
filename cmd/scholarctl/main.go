package main

import "github.com/nikhilbhutani/scholarrag/internal/cli"

func main() {
	cli.Execute()
}
