package bench

import (
	"testing"

	"github.com/OneOfOne/xxhash"
	"github.com/nesv/fsprobe"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func runTrials(t *testing.T, fsys fsprobe.FS, trials []Trial) {
	t.Helper()
	r, err := NewRunner(fsys, trials)
	require.NoError(t, err)
	_, err = r.Run()
	require.NoError(t, err)
}

func TestDigest(t *testing.T) {
	fsys := fsprobe.NewMemFS()
	trials := DefaultTrials(100, DefaultPayload)
	runTrials(t, fsys, trials)

	size, sum, err := Digest(fsys, trials[0].File)
	require.NoError(t, err)
	require.Equal(t, int64(1200), size)
	require.Equal(t, xxhash.Checksum64(fsys.Bytes(trials[0].File)), sum)

	_, _, err = Digest(fsys, "missing.log")
	require.Error(t, err)
}

func TestCompareFaults(t *testing.T) {
	const iterations = 100
	tests := []struct {
		name  string
		fault fsprobe.FaultKind
		at    int
	}{
		// The first trial's file is checked record by record.
		{"ShortWriteFirst", fsprobe.FaultShortWrite, 1},
		{"CorruptWriteFirst", fsprobe.FaultCorruptWrite, 50},
		// The others are checked against the first one's checksum.
		{"CorruptWriteSecond", fsprobe.FaultCorruptWrite, iterations + 50},
		{"DuplicateWriteSecond", fsprobe.FaultDuplicateWrite, iterations + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fsprobe.NewMemFS()
			fsys.InjectFault(tt.fault, tt.at)
			trials := DefaultTrials(iterations, DefaultPayload)
			runTrials(t, fsys, trials)

			err := Compare(fsys, trials)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrNotEquivalent), "got %v", err)
		})
	}
}

func TestCompareMismatchedTrials(t *testing.T) {
	fsys := fsprobe.NewMemFS()
	trials := DefaultTrials(10, DefaultPayload)
	trials[1].Iterations = 11
	runTrials(t, fsys, trials)

	err := Compare(fsys, trials)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNotEquivalent))

	require.NoError(t, Compare(fsys, nil))
}
