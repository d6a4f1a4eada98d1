// file: main.go
// version: 1.0.0
// guid: 0c2d4e6f-8a0b-4c2d-8e4f-8a0b2c4d6e8c

package main

import (
	"fmt"
	"os"

	"github.com/vgrab/video-downloader-bot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
