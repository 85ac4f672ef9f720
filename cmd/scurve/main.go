// Command scurve plans jerk-limited point-to-point moves and shows their
// jerk, acceleration, velocity and position curves.
package main

import "github.com/npillmayer/scurve/cli"

func main() {
	cli.Handle()
}
