//go:build !unix

package deps

func threadLibs() []string { return nil }
