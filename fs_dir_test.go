package fsprobe

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDirFS(t *testing.T) {
	tempdir := filepath.Join(t.TempDir(), "fsprobe")

	t.Run("NewDirFS", func(t *testing.T) {
		fsys, err := NewDirFS(tempdir)
		require.NoError(t, err)

		// Check to see if the fs created the directory.
		info, err := os.Stat(tempdir)
		require.NoError(t, err, "DirFS did not create its directory")
		require.True(t, info.IsDir())
		require.Equal(t, tempdir, fsys.Dir())
	})

	t.Run("NotADirectory", func(t *testing.T) {
		name := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(name, nil, 0644))
		_, err := NewDirFS(name)
		require.Error(t, err)
	})

	fsys, err := NewDirFS(tempdir)
	require.NoError(t, err)

	t.Run("OpenWriteMissing", func(t *testing.T) {
		_, err := fsys.OpenWrite("missing.log")
		require.Error(t, err)
	})

	t.Run("SizeMissing", func(t *testing.T) {
		_, err := fsys.Size("missing.log")
		require.Error(t, err)
	})

	t.Run("RemoveMissing", func(t *testing.T) {
		require.NoError(t, fsys.Remove("missing.log"))
	})

	t.Run("Append", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			f, err := fsys.OpenAppend("append.log")
			require.NoError(t, err)
			_, err = f.Write([]byte("test"))
			require.NoError(t, err)
			require.NoError(t, f.Datasync())
			require.NoError(t, f.Close())

			size, err := fsys.Size("append.log")
			require.NoError(t, err)
			require.Equal(t, int64(4*(i+1)), size)
		}
	})

	t.Run("SplitSync", func(t *testing.T) {
		w, err := fsys.OpenAppend("split.log")
		require.NoError(t, err)
		defer w.Close()
		s, err := fsys.OpenWrite("split.log")
		require.NoError(t, err)
		defer s.Close()

		_, err = w.Write([]byte("test"))
		require.NoError(t, err)
		require.NoError(t, s.Datasync())

		p, err := ReadTail(fsys, "split.log", 0, 4)
		require.NoError(t, err)
		require.Equal(t, "test", string(p))
	})

	t.Run("CreateTruncates", func(t *testing.T) {
		writeFile(t, fsys, "create.log", "hello world\n")
		writeFile(t, fsys, "create.log", "hi")
		size, err := fsys.Size("create.log")
		require.NoError(t, err)
		require.Equal(t, int64(2), size)
	})

	t.Run("ReadOnly", func(t *testing.T) {
		f, err := fsys.Open("create.log")
		require.NoError(t, err)
		defer f.Close()
		require.Equal(t, "create.log", f.Name())
		_, err = f.Write([]byte("nope"))
		require.Error(t, err)
		p, err := io.ReadAll(f)
		require.NoError(t, err)
		require.Equal(t, "hi", string(p))
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, fsys.Remove("create.log"))
		_, err := os.Stat(fsys.Path("create.log"))
		require.True(t, os.IsNotExist(err))
	})
}
