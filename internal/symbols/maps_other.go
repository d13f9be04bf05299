//go:build !linux

package symbols

import "fmt"

func mappedModule(module string) (string, uintptr, error) {
	return "", 0, fmt.Errorf("%s: %w", module, ErrModuleNotFound)
}
