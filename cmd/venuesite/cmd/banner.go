package cmd

import (
	"fmt"
	"io"
)

const banner = `
                                      _ _
 __   _____ _ __  _   _  ___  ___(_) |_ ___
 \ \ / / _ \ '_ \| | | |/ _ \/ __| | __/ _ \
  \ V /  __/ | | | |_| |  __/\__ \ | ||  __/
   \_/ \___|_| |_|\__,_|\___||___/_|\__\___|

`

func printBanner(w io.Writer) {
	fmt.Fprintf(w, "\x1b[34m%s\x1b[0m", banner)
	fmt.Fprintf(w, "\x1b[32m  Convention Center Event API - Version %s\x1b[0m\n\n", Version)
}
