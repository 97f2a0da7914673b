package main

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/nesv/fsprobe"
	"github.com/nesv/fsprobe/bench"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

var benchCmd = cli.Command{
	Name:  "bench",
	Usage: "time unbuffered, buffered and bulk writes of the same data",
	Flags: []cli.Flag{
		cli.IntFlag{
			Name:  "iterations",
			Value: bench.DefaultIterations,
			Usage: "number of payloads each trial writes",
		},
		cli.StringFlag{
			Name:  "payload",
			Value: string(bench.DefaultPayload),
			Usage: "payload written by every iteration",
		},
		cli.BoolFlag{
			Name:  "datasync-each",
			Usage: "also run a trial that syncs every write to stable storage",
		},
		cli.StringFlag{
			Name:  "only",
			Usage: "comma-separated trial files or strategies to run, e.g. case3_bulk,buffered-flush-once",
		},
		cli.BoolFlag{
			Name:  "no-verify",
			Usage: "skip comparing the files written by the trials",
		},
	},
	Action: benchHandler,
}

func benchHandler(c *cli.Context) error {
	fsys, err := fsprobe.NewDirFS(c.GlobalString(dirFlag.Name))
	if err != nil {
		return err
	}

	iterations := c.Int("iterations")
	payload := []byte(c.String("payload"))
	trials := bench.DefaultTrials(iterations, payload)
	if c.Bool("datasync-each") {
		trials = append(trials, bench.DatasyncTrial(iterations, payload))
	}
	if only := c.String("only"); only != "" {
		if trials, err = filterTrials(trials, only); err != nil {
			return err
		}
	}

	asJSON := c.GlobalBool(jsonFlag.Name)
	out := c.App.Writer
	r, err := bench.NewRunner(fsys, trials, bench.OnResult(func(res bench.TrialResult) {
		if !asJSON {
			fmt.Fprintf(out, "%s -> %s\n", res.Trial, fcyan(fmtDuration(res.Elapsed)))
		}
	}))
	if err != nil {
		return err
	}

	glog.Infof("running %d trials in %s", len(trials), fsys.Dir())
	results, err := r.Run()
	if err != nil {
		return err
	}

	verified := false
	if !c.Bool("no-verify") {
		if err := bench.Compare(fsys, trials); err != nil {
			return err
		}
		verified = true
	}

	if asJSON {
		return printJSON(out, struct {
			Dir      string              `json:"dir"`
			Verified bool                `json:"verified"`
			Results  []bench.TrialResult `json:"results"`
		}{fsys.Dir(), verified, results})
	}
	if verified {
		fmt.Fprintf(out, "%s %d files hold identical data.\n", fgreen("OK:"), len(trials))
	}
	return nil
}

// filterTrials keeps the trials matching any of the comma-separated names
// in only. A name matches a trial's file, with or without its extension, or
// its strategy.
func filterTrials(trials []bench.Trial, only string) ([]bench.Trial, error) {
	var kept []bench.Trial
	names := strings.Split(only, ",")
	for _, t := range trials {
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == t.File || name+".log" == t.File || name == t.Strategy.String() {
				kept = append(kept, t)
				break
			}
		}
	}
	if len(kept) == 0 {
		return nil, errors.Errorf("no trial matches %q", only)
	}
	return kept, nil
}
