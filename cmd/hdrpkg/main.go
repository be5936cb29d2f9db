package main

import "github.com/goplus/hdrpkg/cmd/hdrpkg/internal"

func main() {
	internal.Execute()
}
