// Package source loads an elf file's entire content into memory, either by
// reading it or by mapping it read-only.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

var (
	ErrIOFailure = fmt.Errorf("io failure")
)

type Options struct {
	// Map the file read-only instead of copying it into the heap.  Loading
	// falls back to a plain read when the mapping fails.
	Mmap bool
}

type Buffer struct {
	Path    string
	Content []byte

	mapped bool
}

// Mapped reports whether Content is backed by a memory mapping.
func (buffer *Buffer) Mapped() bool {
	return buffer.mapped
}

// Close releases the mapping, if any.  Content must not be used afterward.
func (buffer *Buffer) Close() error {
	if buffer == nil || buffer.Content == nil {
		return nil
	}

	var err error
	if buffer.mapped {
		err = unix.Munmap(buffer.Content)
		if err != nil {
			err = fmt.Errorf("%w: failed to unmap %s: %w", ErrIOFailure, buffer.Path, err)
		}
	}

	buffer.Content = nil
	buffer.mapped = false
	return err
}

func Load(path string, options Options) (*Buffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %w", ErrIOFailure, path, err)
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to stat %s: %w", ErrIOFailure, path, err)
	}

	if stat.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrIOFailure, path)
	}

	size64 := stat.Size()
	if size64 < 0 || size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf(
			"%w: %s size (%d) not addressable",
			ErrIOFailure,
			path,
			size64)
	}
	size := int(size64)

	// mmap rejects zero length mappings.
	if options.Mmap && size > 0 {
		data, err := unix.Mmap(
			int(file.Fd()),
			0,
			size,
			unix.PROT_READ,
			unix.MAP_SHARED)
		if err == nil {
			return &Buffer{
				Path:    path,
				Content: data,
				mapped:  true,
			}, nil
		}
	}

	content, err := readAll(file, size)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrIOFailure, path, err)
	}

	return &Buffer{
		Path:    path,
		Content: content,
	}, nil
}

func readAll(reader io.ReaderAt, size int) ([]byte, error) {
	content := make([]byte, size)

	n, err := reader.ReadAt(content, 0)
	if err != nil && !(errors.Is(err, io.EOF) && n == size) {
		return nil, err
	}

	return content, nil
}
