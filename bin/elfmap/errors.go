package main

import (
	"errors"
	"fmt"

	"github.com/pattyshack/elfmap/elf"
	"github.com/pattyshack/elfmap/source"
)

var (
	errUsage = fmt.Errorf("usage error")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{errUsage, "UsageError"},
	{source.ErrIOFailure, "IOFailure"},
	{elf.ErrMalformedIdentification, "MalformedIdentification"},
	{elf.ErrUnsupportedWordClass, "UnsupportedWordClass"},
	{elf.ErrUnresolvedSectionName, "UnresolvedSectionName"},
	{elf.ErrTruncatedTable, "TruncatedTable"},
	{elf.ErrInvalidIndex, "InvalidIndex"},
}

func errorKind(err error) string {
	for _, entry := range errorKinds {
		if errors.Is(err, entry.err) {
			return entry.kind
		}
	}
	return "Error"
}

// describeError prefixes the error with its kind, e.g.
//
//	elfmap: TruncatedTable: failed to parse a.out: truncated table: ...
func describeError(err error) string {
	return fmt.Sprintf("elfmap: %s: %s", errorKind(err), err)
}
