// Package outfile opens and prepares RandQuik's output destination: a
// named path, a block device, or stdout, with dry-run and resumption
// support.
package outfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"syscall"

	"github.com/randquik/randquik/internal/randerr"
)

// File is the handle the pipeline writes through. DryRun files discard
// all writes but still report Created/sized correctly for the caller's
// bookkeeping.
type File struct {
	f       *os.File
	dry     bool
	created bool
	path    string
}

// Open prepares the output destination named by path ("" or "-" means
// stdout). totalKnown/total describe the number of bytes the caller
// intends to write, used to preallocate via ftruncate; oseek is the
// starting write offset. In dry mode, no file is opened or touched.
//
// Open refuses to write binary data to a TTY when path is empty, per
// spec: the caller must pass -o to write to a regular destination.
func Open(path string, totalKnown bool, total int64, oseek int64, dry bool) (*File, error) {
	if dry {
		return &File{dry: true, path: path}, nil
	}

	if path == "" || path == "-" {
		if isTerminal(os.Stdout) {
			return nil, randerr.New(randerr.IoOpen, "refusing to write binary data to terminal; use -o to specify a file", nil)
		}
		return &File{f: os.Stdout, path: "stdout"}, nil
	}

	_, statErr := os.Stat(path)
	created := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return nil, randerr.New(randerr.IoOpen, "opening output", err).WithPath(path)
	}

	out := &File{f: f, created: created, path: path}

	if err := out.preallocate(totalKnown, total, oseek); err != nil {
		f.Close()
		if created {
			os.Remove(path)
		}
		return nil, err
	}

	if oseek > 0 {
		if _, err := f.Seek(oseek, io.SeekStart); err != nil {
			f.Close()
			if created {
				os.Remove(path)
			}
			return nil, randerr.New(randerr.IoOpen, fmt.Sprintf("cannot oseek in %s; use only --iseek or specify a seekable file", path), err).WithPath(path)
		}
	}

	applyNoCacheHint(f)

	return out, nil
}

func (o *File) preallocate(totalKnown bool, total, oseek int64) error {
	if !totalKnown {
		return nil
	}
	required := oseek + total
	info, err := o.f.Stat()
	if err != nil {
		return nil
	}
	if required > info.Size() {
		// Best-effort, matching the original's suppress-OSError behavior:
		// some destinations (pipes, certain block devices) don't support
		// truncation and that's fine.
		_ = o.f.Truncate(required)
	}
	return nil
}

// Write writes buf to the output, a no-op that still reports success in
// dry mode. ENOSPC is translated to a structured IoWrite error and, if
// this run created the file, the file is unlinked.
func (o *File) Write(buf []byte) error {
	if o.dry {
		return nil
	}
	if _, err := o.f.Write(buf); err != nil {
		if errors.Is(err, syscall.ENOSPC) {
			if o.created {
				os.Remove(o.path)
			}
			return randerr.New(randerr.IoWrite, "no space left on device", err).WithPath(o.path)
		}
		if errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe) {
			return randerr.New(randerr.Interrupted, "broken pipe", err).WithPath(o.path)
		}
		return randerr.New(randerr.IoWrite, "writing output", err).WithPath(o.path)
	}
	return nil
}

// Close closes the underlying file descriptor, if any. Stdout is left
// open, matching the original's behavior of not closing fd 1 early.
func (o *File) Close() error {
	if o.dry || o.f == nil || o.f == os.Stdout {
		return nil
	}
	return o.f.Close()
}

// Created reports whether this Open call created the output file (as
// opposed to opening an existing one), used to decide whether an
// ENOSPC/error abort should also unlink the file.
func (o *File) Created() bool { return o.created }

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func applyNoCacheHint(f *os.File) {
	if runtime.GOOS != "darwin" {
		return
	}
	applyDarwinNoCache(f)
}
