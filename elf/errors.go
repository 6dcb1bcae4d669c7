package elf

import (
	"fmt"
)

// Construction failures (ErrMalformedIdentification, ErrUnsupportedWordClass,
// ErrTruncatedTable) abort the whole parse.  Query failures only affect the
// query that returned them.
var (
	ErrMalformedIdentification = fmt.Errorf("malformed identification")
	ErrUnsupportedWordClass    = fmt.Errorf("unsupported word class")
	ErrTruncatedTable          = fmt.Errorf("truncated table")
	ErrUnresolvedSectionName   = fmt.Errorf("unresolved section name")
	ErrInvalidIndex            = fmt.Errorf("invalid index")
)
