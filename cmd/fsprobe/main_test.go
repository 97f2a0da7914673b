package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/nesv/fsprobe"
	"github.com/nesv/fsprobe/bench"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{appName, "--no-color"}, args...))
	return out.String(), err
}

func TestVerifyCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "--dir", dir, "verify", "--iterations", "25", "--progress", "lines")
	require.NoError(t, err)
	for _, topology := range fsprobe.Topologies {
		require.Contains(t, out, "["+topology.String()+"] Finished 25 append + datasync cycles successfully.")
	}

	b, err := os.ReadFile(filepath.Join(dir, fsprobe.DefaultPath))
	require.NoError(t, err)
	require.Len(t, b, 25*len(fsprobe.DefaultPayload))
}

func TestVerifyCommandJSON(t *testing.T) {
	out, err := run(t, "--dir", t.TempDir(), "--json", "verify", "--iterations", "5", "--topology", "split", "--file", "probe.log")
	require.NoError(t, err)
	require.Contains(t, out, `"topology": "split"`)
	require.Contains(t, out, `"path": "probe.log"`)
	require.Contains(t, out, `"bytes": 20`)
}

func TestVerifyCommandErrors(t *testing.T) {
	_, err := run(t, "--dir", t.TempDir(), "verify", "--topology", "sideways")
	require.Error(t, err)

	_, err = run(t, "--dir", t.TempDir(), "verify", "--progress", "fireworks")
	require.Error(t, err)

	_, err = run(t, "--dir", t.TempDir(), "verify", "--iterations", "0")
	require.Error(t, err)
}

func TestBenchCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "--dir", dir, "bench", "--iterations", "200")
	require.NoError(t, err)
	for _, tr := range bench.DefaultTrials(200, bench.DefaultPayload) {
		require.Contains(t, out, tr.Name+" -> ")
		fi, err := os.Stat(filepath.Join(dir, tr.File))
		require.NoError(t, err)
		require.Equal(t, tr.Size(), fi.Size())
	}
	require.Contains(t, out, "OK: 7 files hold identical data.")
}

func TestBenchCommandOnly(t *testing.T) {
	out, err := run(t, "--dir", t.TempDir(), "--json", "bench", "--iterations", "50", "--only", "case3_bulk,datasync-each", "--datasync-each")
	require.NoError(t, err)
	require.Contains(t, out, `"strategy": "bulk"`)
	require.Contains(t, out, `"strategy": "datasync-each"`)
	require.NotContains(t, out, `"strategy": "unbuffered"`)
	require.Contains(t, out, `"verified": true`)
}

func TestFilterTrials(t *testing.T) {
	trials := bench.DefaultTrials(1, bench.DefaultPayload)

	kept, err := filterTrials(trials, "case1_flush_each.log, buffered-flush-once")
	require.NoError(t, err)
	require.Len(t, kept, 3)
	require.Equal(t, "case1_flush_each.log", kept[0].File)
	require.Equal(t, "case1b_flush_once_buffered.log", kept[1].File)
	require.Equal(t, "case2b_flush_once_buffered.log", kept[2].File)

	_, err = filterTrials(trials, "case9")
	require.Error(t, err)
}

func TestParseTopologies(t *testing.T) {
	all, err := parseTopologies("all")
	require.NoError(t, err)
	require.Equal(t, fsprobe.Topologies, all)

	one, err := parseTopologies("reopen")
	require.NoError(t, err)
	require.Equal(t, []fsprobe.Topology{fsprobe.SingleHandleReopen}, one)
}
