package hdfs

import (
	"strconv"
	"strings"

	appErr "nodeagent/pkg/errors"
)

// ParseUsage extracts the byte count reported for path from the output of
// the usage subcommand. The client interleaves log noise and warnings with
// the records, so lines are scanned until one has exactly two
// whitespace-separated fields, names path exactly, and starts with a
// non-negative integer. The first such line wins.
func ParseUsage(output, path string) (uint64, error) {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 || fields[1] != path {
			continue
		}
		size, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			continue
		}
		return size, nil
	}
	return 0, appErr.Newf(appErr.UnexpectedOutputFormat, "unexpected output format: '%s'", output).
		WithDetail("stdout", output).
		WithDetail("path", path)
}
