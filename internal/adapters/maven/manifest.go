package maven

import (
	"bufio"
	"strings"

	"github.com/klauspost/compress/zip"
)

const manifestName = "META-INF/MANIFEST.MF"

// mainClass reads the Main-Class attribute of a jar manifest. It returns "" when the jar
// has no manifest or the manifest names no main class.
func mainClass(jar string) string {
	zr, err := zip.OpenReader(jar)
	if err != nil {
		return ""
	}
	defer func() {
		_ = zr.Close()
	}()

	var entry *zip.File
	for _, f := range zr.File {
		if f.Name == manifestName {
			entry = f
			break
		}
	}
	if entry == nil {
		return ""
	}
	f, err := entry.Open()
	if err != nil {
		return ""
	}
	defer func() {
		_ = f.Close()
	}()

	attrs := make(map[string]string)
	last := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			// main section ends at the first blank line
			break
		}
		if strings.HasPrefix(line, " ") && last != "" {
			attrs[last] += line[1:]
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		last = strings.TrimSpace(key)
		attrs[last] = strings.TrimSpace(value)
	}
	return attrs["Main-Class"]
}
