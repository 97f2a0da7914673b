// Command fsprobe checks that appended data survives fdatasync(2) the way it
// should, and times buffered against unbuffered writes.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/golang/glog"
	"github.com/urfave/cli"
)

const appName = "fsprobe"

var version = "0.1.0"

// color
var (
	fred   = color.New(color.FgHiRed).SprintFunc()
	fcyan  = color.New(color.FgHiCyan).SprintFunc()
	fgreen = color.New(color.FgHiGreen).SprintFunc()
)

var (
	dirFlag = cli.StringFlag{
		Name:  "dir",
		Value: ".",
		Usage: "directory the probe files are created in",
	}
	noColorFlag = cli.BoolFlag{
		Name:  "no-color",
		Usage: "disable colored output",
	}
	jsonFlag = cli.BoolFlag{
		Name:  "json",
		Usage: "print results as JSON",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "log verbosity; 2 logs every iteration",
	}
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = appName
	app.Usage = "probe the durability and write performance of a file system"
	app.Version = version
	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr
	app.Flags = []cli.Flag{dirFlag, noColorFlag, jsonFlag, verbosityFlag}
	app.Before = setup
	app.Commands = []cli.Command{benchCmd, verifyCmd}
	return app
}

// setup configures colors and logging before any command runs.
func setup(c *cli.Context) error {
	if c.GlobalBool(noColorFlag.Name) {
		color.NoColor = true
	}

	if err := flag.Set("logtostderr", "true"); err != nil {
		return err
	}
	if err := flag.Set("v", strconv.Itoa(c.GlobalInt(verbosityFlag.Name))); err != nil {
		return err
	}
	return flag.CommandLine.Parse(nil)
}

func main() {
	app := newApp()
	err := app.Run(os.Args)
	if err != nil {
		glog.Errorf("%s: %v", appName, err)
		glog.Flush()
		fmt.Fprintf(os.Stderr, "%s %v\n", fred("Error:"), err)
		os.Exit(1)
	}
	glog.Flush()
}
