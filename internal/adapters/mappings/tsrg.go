package mappings

import (
	"strings"

	"go.trai.ch/anvil/internal/core/domain"
)

func parseTSRG(table *domain.MappingTable, lines []line) error {
	if strings.HasPrefix(lines[0].text, "tsrg2") {
		return malformed(lines[0], "tsrg2 mappings are not supported")
	}

	owner := ""
	for _, l := range lines {
		fields := strings.Fields(l.text)
		if !l.indent {
			if len(fields) != 2 {
				return malformed(l, "class record needs 2 names")
			}
			if strings.HasSuffix(fields[0], "/") {
				table.AddPackage(packageName(fields[0]), packageName(fields[1]))
				owner = ""
				continue
			}
			owner = fields[0]
			table.AddClass(fields[0], fields[1])
			continue
		}

		if owner == "" {
			return malformed(l, "member record outside a class")
		}
		switch len(fields) {
		case 2:
			table.AddField(owner, fields[0], fields[1])
		case 3:
			if !strings.HasPrefix(fields[1], "(") {
				return malformed(l, "method descriptor must start with '('")
			}
			table.AddMethod(owner, fields[0], fields[1], fields[2])
		default:
			return malformed(l, "member record needs 2 or 3 fields")
		}
	}
	return nil
}
