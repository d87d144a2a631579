/*
Copyright © 2026 Orkflow Authors
*/
package main

import "Quill/internal/cli"

func main() {
	cli.Execute()
}
