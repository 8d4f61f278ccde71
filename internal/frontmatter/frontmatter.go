package frontmatter

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// Delimiter is the token a frontmatter delimiter line consists of (trailing
// whitespace on the line is ignored).
const Delimiter = "+++"

// probeSize bounds how much of a file is read while deciding whether it
// starts with frontmatter, so that scanning binary assets stays cheap.
const probeSize = 256

// ErrMissingClosingDelimiter indicates the file started with a frontmatter
// delimiter line but no closing delimiter line was found.
var ErrMissingClosingDelimiter = errors.New("frontmatter start delimiter found but closing delimiter is missing")

// Parse looks for TOML frontmatter at the start of r.
//
// Contract:
//   - If the first line of r is not a `+++` delimiter (including the cases
//     where the probe window holds no complete line or the first line is not
//     valid UTF-8), r is rewound to its start and Parse returns
//     (nil, 0, nil): the file has no frontmatter.
//   - Otherwise, Parse reads line by line (no longer size-limited) until a
//     closing delimiter line and returns the document bytes between the two
//     delimiter lines, plus the absolute offset of the first byte after the
//     closing delimiter line. The caller can seek to bodyOffset to read the
//     remaining content without re-reading the frontmatter.
//   - A missing closing delimiter is reported as ErrMissingClosingDelimiter.
//
// The TOML document itself is decoded by the caller.
func Parse(r io.ReadSeeker) (doc []byte, bodyOffset int64, err error) {
	probe := make([]byte, probeSize)
	n, err := io.ReadFull(r, probe)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, 0, err
	}
	probe = probe[:n]

	nl := bytes.IndexByte(probe, '\n')
	if nl < 0 || !utf8.Valid(probe[:nl]) || !isDelimiterLine(string(probe[:nl])) {
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, 0, err
		}
		return nil, 0, nil
	}

	// Frontmatter found: drop the read limit and continue after the opening
	// delimiter line.
	offset := int64(nl + 1)
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, err
	}
	br := bufio.NewReader(r)

	var buf bytes.Buffer
	for {
		line, readErr := br.ReadString('\n')
		offset += int64(len(line))
		if isDelimiterLine(strings.TrimSuffix(line, "\n")) {
			return buf.Bytes(), offset, nil
		}
		buf.WriteString(line)
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil, 0, ErrMissingClosingDelimiter
			}
			return nil, 0, readErr
		}
	}
}

func isDelimiterLine(line string) bool {
	return strings.TrimRight(line, " \t\r") == Delimiter
}
