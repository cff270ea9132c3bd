package outputs

import (
	"bufio"
	"os"
	"strings"
)

// CountDataRows returns the number of non-blank lines after the header.
func CountDataRows(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	rows := 0
	header := true
	for scanner.Scan() {
		if isBlank(scanner.Text()) {
			continue
		}
		if header {
			header = false
			continue
		}
		rows++
	}
	return rows, scanner.Err()
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
