package symbols

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const procMaps = "/proc/self/maps"

// mappedModule finds module in the memory map of the process. module may be
// a full path or a file name such as "libc.so.6".
func mappedModule(module string) (string, uintptr, error) {
	f, err := os.Open(procMaps)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	return findMapping(bufio.NewScanner(f), module)
}

func findMapping(s *bufio.Scanner, module string) (string, uintptr, error) {
	for s.Scan() {
		fields := strings.Fields(s.Text())
		// address perms offset dev inode pathname
		if len(fields) < 6 {
			continue
		}
		path := fields[5]
		if path != module && filepath.Base(path) != module {
			continue
		}
		start, _, ok := strings.Cut(fields[0], "-")
		if !ok {
			continue
		}
		addr, err := strconv.ParseUint(start, 16, 64)
		if err != nil {
			return "", 0, fmt.Errorf("failed to parse address: %v", err)
		}
		off, err := strconv.ParseUint(fields[2], 16, 64)
		if err != nil {
			return "", 0, fmt.Errorf("failed to parse offset: %v", err)
		}
		// the first mapping of a file is the one at file offset zero
		return path, uintptr(addr - off), nil
	}
	if err := s.Err(); err != nil {
		return "", 0, err
	}
	return "", 0, fmt.Errorf("%s: %w", module, ErrModuleNotFound)
}
