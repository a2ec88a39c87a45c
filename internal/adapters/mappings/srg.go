package mappings

import (
	"strings"

	"go.trai.ch/anvil/internal/core/domain"
)

func parseSRG(table *domain.MappingTable, lines []line) error {
	for _, l := range lines {
		fields := strings.Fields(l.text)
		switch fields[0] {
		case "PK:":
			if len(fields) != 3 {
				return malformed(l, "package record needs 2 names")
			}
			table.AddPackage(packageName(fields[1]), packageName(fields[2]))
		case "CL:":
			if len(fields) != 3 {
				return malformed(l, "class record needs 2 names")
			}
			table.AddClass(fields[1], fields[2])
		case "FD:":
			if len(fields) != 3 && len(fields) != 5 {
				return malformed(l, "field record needs 2 names")
			}
			owner, name, ok := splitMember(fields[1])
			_, to, ok2 := splitMember(fields[len(fields)/2+1])
			if !ok || !ok2 {
				return malformed(l, "field names must be owner/name")
			}
			table.AddField(owner, name, to)
		case "MD:":
			if len(fields) != 5 {
				return malformed(l, "method record needs names and descriptors")
			}
			owner, name, ok := splitMember(fields[1])
			_, to, ok2 := splitMember(fields[3])
			if !ok || !ok2 || !strings.HasPrefix(fields[2], "(") {
				return malformed(l, "method names must be owner/name followed by a descriptor")
			}
			table.AddMethod(owner, name, fields[2], to)
		default:
			return malformed(l, "unknown record tag")
		}
	}
	return nil
}
