// Command kobodl manages Kobo accounts and downloads purchased books.
//
// It drives the Kobo web activation to register a virtual e-reader,
// stores the resulting device credentials and downloads books with the
// Kobo DRM removed. The serve command exposes the same workflow over a
// small web UI.
package main

import (
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"
	"github.com/viant/kobodl/cli"

	// blowfish cipher for encrypted settings storage
	_ "github.com/viant/scy/kms/blowfish"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			// go-flags already printed the message
			if flagsErr.Type == flags.ErrHelp {
				return
			}
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
