package main

import "github.com/goplus/motion/cmd/motion/internal"

func main() {
	internal.Execute()
}
