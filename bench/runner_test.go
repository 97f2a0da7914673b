package bench

import (
	"testing"

	"github.com/nesv/fsprobe"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestDefaultTrials(t *testing.T) {
	trials := DefaultTrials(DefaultIterations, DefaultPayload)
	require.Len(t, trials, 7)

	files := make(map[string]bool)
	blocking := 0
	for _, tr := range trials {
		require.NoError(t, tr.validate())
		require.False(t, files[tr.File], "duplicate file %s", tr.File)
		files[tr.File] = true
		if tr.Blocking {
			blocking++
		}
		require.Equal(t, int64(12000000), tr.Size())
	}
	require.Equal(t, 3, blocking)
	require.Equal(t, Bulk, trials[len(trials)-1].Strategy)
}

func TestRunnerMemFS(t *testing.T) {
	const iterations = 1000
	fsys := fsprobe.NewMemFS()
	trials := append(DefaultTrials(iterations, DefaultPayload), DatasyncTrial(iterations, DefaultPayload))

	var seen []string
	r, err := NewRunner(fsys, trials, OnResult(func(res TrialResult) { seen = append(seen, res.Trial) }))
	require.NoError(t, err)

	results, err := r.Run()
	require.NoError(t, err)
	require.Len(t, results, len(trials))
	for i, res := range results {
		require.Equal(t, trials[i].Name, res.Trial)
		require.Equal(t, trials[i].Name, seen[i])
		require.Equal(t, trials[i].Blocking, res.Blocking)
		require.Equal(t, int64(iterations*len(DefaultPayload)), res.Bytes)
		require.True(t, res.Elapsed >= 0)
	}
	require.NoError(t, Compare(fsys, trials))

	t.Run("Writes", func(t *testing.T) {
		for _, tr := range trials {
			s := fsys.Stats(tr.File)
			require.Equal(t, 1, s.Creates, tr.Name)
			switch tr.Strategy {
			case Unbuffered, BufferedFlushEach:
				require.Equal(t, iterations, s.Writes, tr.Name)
			case BufferedFlushOnce:
				require.True(t, s.Writes > 0 && s.Writes < iterations, "%s: %d writes", tr.Name, s.Writes)
			case Bulk:
				require.Equal(t, 1, s.Writes, tr.Name)
			case DatasyncEach:
				require.Equal(t, iterations, s.Writes, tr.Name)
				require.Equal(t, iterations, s.Syncs, tr.Name)
			}
		}
	})
}

func TestRunnerDirFS(t *testing.T) {
	fsys, err := fsprobe.NewDirFS(t.TempDir())
	require.NoError(t, err)

	trials := append(DefaultTrials(500, []byte("hello world\n")), DatasyncTrial(20, []byte("hello world\n")))
	r, err := NewRunner(fsys, trials, BufferSize(64))
	require.NoError(t, err)

	results, err := r.Run()
	require.NoError(t, err)
	require.Len(t, results, len(trials))

	// The datasync trial writes fewer records, so it is compared on its own.
	require.NoError(t, Compare(fsys, trials[:len(trials)-1]))
	require.NoError(t, Compare(fsys, trials[len(trials)-1:]))
}

func TestRunnerRerun(t *testing.T) {
	fsys := fsprobe.NewMemFS()
	trials := DefaultTrials(10, []byte("abc"))
	r, err := NewRunner(fsys, trials)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := r.Run()
		require.NoError(t, err)
	}
	// Every trial truncates its file.
	for _, tr := range trials {
		require.Len(t, fsys.Bytes(tr.File), 30)
	}
	require.NoError(t, Compare(fsys, trials))
}

// failFS fails every write made to the file named file.
type failFS struct {
	fsprobe.FS
	file string
	err  error
}

type failFile struct {
	fsprobe.File
	err error
}

func (f failFS) Create(name string) (fsprobe.File, error) {
	file, err := f.FS.Create(name)
	if err != nil || name != f.file {
		return file, err
	}
	return failFile{File: file, err: f.err}, nil
}

func (f failFile) Write(p []byte) (int, error) { return 0, f.err }

func TestRunnerFailure(t *testing.T) {
	injected := errors.New("no space left on device")
	trials := DefaultTrials(10, DefaultPayload)

	for _, i := range []int{2, 4} {
		failing := trials[i]
		t.Run(failing.Name, func(t *testing.T) {
			fsys := failFS{FS: fsprobe.NewMemFS(), file: failing.File, err: injected}
			r, err := NewRunner(fsys, trials)
			require.NoError(t, err)

			results, err := r.Run()
			require.Error(t, err)
			require.True(t, errors.Is(err, injected))
			require.Contains(t, err.Error(), failing.Name)
			// Trials after the failing one never ran.
			require.Len(t, results, i)
		})
	}
}

func TestNewRunner(t *testing.T) {
	fsys := fsprobe.NewMemFS()
	good := DefaultTrials(1, DefaultPayload)

	_, err := NewRunner(nil, good)
	require.Error(t, err)

	_, err = NewRunner(fsys, nil)
	require.Error(t, err)

	_, err = NewRunner(fsys, good, BufferSize(0))
	require.Error(t, err)

	bad := []Trial{
		{Name: "", File: "a.log", Iterations: 1, Payload: DefaultPayload},
		{Name: "no file", Iterations: 1, Payload: DefaultPayload},
		{Name: "no iterations", File: "a.log", Payload: DefaultPayload},
		{Name: "no payload", File: "a.log", Iterations: 1},
		{Name: "bad strategy", File: "a.log", Iterations: 1, Payload: DefaultPayload, Strategy: Strategy(42)},
	}
	for _, tr := range bad {
		_, err := NewRunner(fsys, []Trial{tr})
		require.Error(t, err, tr.Name)
	}

	dup := append(DefaultTrials(1, DefaultPayload), Trial{
		Name: "copycat", File: "case3_bulk.log", Iterations: 1, Payload: DefaultPayload,
	})
	_, err = NewRunner(fsys, dup)
	require.Error(t, err)
	require.Contains(t, err.Error(), "copycat")
}

func TestStrategy(t *testing.T) {
	for s, name := range strategyNames {
		require.Equal(t, name, s.String())
		txt, err := s.MarshalText()
		require.NoError(t, err)
		require.Equal(t, name, string(txt))
	}
	require.Equal(t, "Strategy(42)", Strategy(42).String())
	_, err := Strategy(42).MarshalText()
	require.Error(t, err)
}
