package subprocess

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

// LookupCharset resolves a console charset name such as "cp850",
// "windows-1252" or "ibm866". It returns a nil encoding for UTF-8 and for
// an empty name, meaning no transcoding is needed.
func LookupCharset(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)

	switch strings.ToLower(name) {
	case "", "utf-8", "utf8", "cp65001":
		return nil, nil
	}

	if enc, err := htmlindex.Get(name); err == nil {
		return enc, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", name, err)
	}

	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", name)
	}

	return enc, nil
}
