package version

import "fmt"

var (
	Version = "0.1.0"
	Logo    = `

  ___  ___ _ __  ___  ___  _ __ ___ _   _ _ __   ___
 / __|/ _ \ '_ \/ __|/ _ \| '__/ __| | | | '_ \ / __|
 \__ \  __/ | | \__ \ (_) | |  \__ \ |_| | | | | (__
 |___/\___|_| |_|___/\___/|_|  |___/\__, |_| |_|\___|
                                    |___/  Version: %s
`
)

// PrintLogo returns the program banner with the version filled in.
func PrintLogo() string {
	return fmt.Sprintf(Logo, Version)
}
