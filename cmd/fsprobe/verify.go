package main

import (
	"fmt"
	"io"
	"time"

	"github.com/nesv/fsprobe"
	"github.com/nesv/fsprobe/fsprobeutil"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v4"
	"github.com/vbauerster/mpb/v4/decor"
)

const (
	progressBar   = "bar"
	progressLines = "lines"
	progressNone  = "none"

	progressBarWidth = 64
)

var verifyCmd = cli.Command{
	Name:  "verify",
	Usage: "append, fdatasync and read back a payload, checking the file after every step",
	Flags: []cli.Flag{
		cli.IntFlag{
			Name:  "iterations",
			Value: fsprobe.DefaultIterations,
			Usage: "number of append + datasync cycles per topology",
		},
		cli.StringFlag{
			Name:  "payload",
			Value: string(fsprobe.DefaultPayload),
			Usage: "payload appended by every iteration",
		},
		cli.StringFlag{
			Name:  "file",
			Value: fsprobe.DefaultPath,
			Usage: "file to append to; removed before every run",
		},
		cli.StringFlag{
			Name:  "topology",
			Value: "all",
			Usage: "handles to write and sync through: single, reopen, split or all",
		},
		cli.StringFlag{
			Name:  "progress",
			Value: progressNone,
			Usage: "progress display: bar, lines or none",
		},
		cli.DurationFlag{
			Name:  "report-interval",
			Value: time.Second,
			Usage: "interval between progress lines",
		},
	},
	Action: verifyHandler,
}

func verifyHandler(c *cli.Context) error {
	fsys, err := fsprobe.NewDirFS(c.GlobalString(dirFlag.Name))
	if err != nil {
		return err
	}

	topologies, err := parseTopologies(c.String("topology"))
	if err != nil {
		return err
	}
	progress := c.String("progress")
	switch progress {
	case progressBar, progressLines, progressNone:
	default:
		return errors.Errorf("invalid progress display %q", progress)
	}

	var (
		asJSON  = c.GlobalBool(jsonFlag.Name)
		out     = c.App.Writer
		results = make([]*fsprobe.Result, 0, len(topologies))
	)
	for _, topology := range topologies {
		opts := []fsprobe.Option{
			fsprobe.Iterations(c.Int("iterations")),
			fsprobe.Payload([]byte(c.String("payload"))),
			fsprobe.WithTopology(topology),
		}
		res, err := runVerifier(fsys, c.String("file"), opts, progress, c.Duration("report-interval"), out)
		if err != nil {
			return errors.Wrapf(err, "%s topology", topology)
		}
		results = append(results, res)
		if !asJSON {
			fmt.Fprintf(out, "%s Finished %d append + datasync cycles successfully. (%s, %s)\n",
				fgreen("["+topology.String()+"]"), res.Iterations, fcyan(fmtDuration(res.Elapsed)), fsys.Path(res.Path))
		}
	}

	if asJSON {
		return printJSON(out, results)
	}
	return nil
}

func parseTopologies(s string) ([]fsprobe.Topology, error) {
	if s == "all" {
		return fsprobe.Topologies, nil
	}
	t, err := fsprobe.ParseTopology(s)
	if err != nil {
		return nil, err
	}
	return []fsprobe.Topology{t}, nil
}

// runVerifier runs a single verifier, displaying its progress.
func runVerifier(fsys fsprobe.FS, file string, opts []fsprobe.Option, progress string, interval time.Duration, out io.Writer) (*fsprobe.Result, error) {
	var (
		p   *mpb.Progress
		bar *mpb.Bar
	)
	if progress == progressBar {
		p = mpb.New(mpb.WithWidth(progressBarWidth), mpb.WithOutput(out))
		opts = append(opts, fsprobe.OnIteration(func(s fsprobe.State) {
			bar.SetCurrent(int64(s.Iteration))
		}))
	}

	v, err := fsprobe.NewVerifier(fsys, file, opts...)
	if err != nil {
		return nil, err
	}

	switch progress {
	case progressBar:
		_, total := v.Progress()
		text := v.Topology().String()
		bar = p.AddBar(int64(total),
			mpb.PrependDecorators(
				decor.Name(text, decor.WC{W: len(text) + 1, C: decor.DidentRight}),
				decor.CountersNoUnit("%d/%d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(decor.Percentage(decor.WCSyncWidth)),
		)
		res, err := v.Run()
		if err != nil {
			bar.Abort(false)
		}
		p.Wait()
		return res, err

	case progressLines:
		var (
			stop    = make(chan struct{})
			stopped = make(chan struct{})
		)
		go func() {
			defer close(stopped)
			fsprobeutil.ReportInterval(v, interval, stop, func(done, total int) {
				fmt.Fprintf(out, "%s: %d/%d iterations\n", v.Topology(), done, total)
			})
		}()
		res, err := v.Run()
		close(stop)
		<-stopped
		return res, err
	}
	return v.Run()
}
