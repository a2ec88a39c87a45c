// Package mappings loads SRG and TSRG mapping files into a domain.MappingTable.
package mappings

import (
	"bufio"
	"io"
	"os"
	"strings"

	"go.trai.ch/anvil/internal/core/domain"
	"go.trai.ch/zerr"
)

type format int

const (
	formatUnknown format = iota
	formatSRG
	formatTSRG
)

const maxLineSize = 1 << 20

// Load reads a mapping file from disk.
func Load(path string) (*domain.MappingTable, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, zerr.With(zerr.Wrap(domain.ErrMappingLoad, "mapping file not found"), "path", path)
		}
		return nil, zerr.With(domain.Classify(domain.ErrMappingLoad, err), "path", path)
	}
	defer func() {
		_ = f.Close()
	}()

	table, err := Parse(f)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return table, nil
}

type line struct {
	number int
	text   string
	indent bool
}

// Parse reads SRG or TSRG mappings, detecting the format from the first record.
func Parse(r io.Reader) (*domain.MappingTable, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	table := domain.NewMappingTable()
	switch detect(lines) {
	case formatSRG:
		err = parseSRG(table, lines)
	case formatTSRG:
		err = parseTSRG(table, lines)
	default:
		return nil, zerr.Wrap(domain.ErrMappingLoad, "no mapping records found")
	}
	if err != nil {
		return nil, err
	}
	return table, nil
}

// detect returns the format of the first record.
func detect(lines []line) format {
	if len(lines) == 0 {
		return formatUnknown
	}
	first := lines[0].text
	for _, tag := range []string{"PK:", "CL:", "FD:", "MD:"} {
		if strings.HasPrefix(first, tag) {
			return formatSRG
		}
	}
	if lines[0].indent {
		return formatUnknown
	}
	return formatTSRG
}

// readLines strips comments and blank lines.
func readLines(r io.Reader) ([]line, error) {
	var lines []line
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	n := 0
	for scanner.Scan() {
		n++
		text := scanner.Text()
		if idx := strings.IndexByte(text, '#'); idx >= 0 {
			text = text[:idx]
		}
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}
		lines = append(lines, line{
			number: n,
			text:   trimmed,
			indent: text[0] == ' ' || text[0] == '\t',
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, domain.Classify(domain.ErrMappingLoad, err)
	}
	return lines, nil
}

func malformed(l line, msg string) error {
	return zerr.With(zerr.With(zerr.Wrap(domain.ErrMappingLoad, msg), "line", l.number), "text", l.text)
}

// splitMember splits "owner/name" at the last slash.
func splitMember(s string) (string, string, bool) {
	idx := strings.LastIndexByte(s, '/')
	if idx <= 0 || idx == len(s)-1 {
		return "", "", false
	}
	return s[:idx], s[idx+1:], true
}

// packageName normalizes a package record: trailing slash removed, "." is the default package.
func packageName(s string) string {
	s = strings.TrimSuffix(s, "/")
	if s == "." {
		return ""
	}
	return s
}
