//go:build linux || darwin || freebsd

package native

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

func makeSlice(addr uintptr, size int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
}

func slicePtr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

func protectPages(addr, size, pageSize uintptr) error {
	return mprotect(addr, size, pageSize, unix.PROT_EXEC|unix.PROT_READ|unix.PROT_WRITE)
}

func reProtectPages(addr, size, pageSize uintptr) error {
	return mprotect(addr, size, pageSize, unix.PROT_EXEC|unix.PROT_READ)
}

func mprotect(addr, size, pageSize uintptr, prot int) error {
	start, length := pageSpan(addr, size, pageSize)
	for i := uintptr(0); i < length; i += pageSize {
		data := makeSlice(start+i, int(pageSize))
		if err := unix.Mprotect(data, prot); err != nil {
			return err
		}
	}
	return nil
}

// writeCode overwrites code at addr. The pages are left read+exec.
func writeCode(addr uintptr, b []byte, pageSize uintptr) error {
	if err := protectPages(addr, uintptr(len(b)), pageSize); err != nil {
		return fmt.Errorf("%w: %v", errProtect, err)
	}
	copy(makeSlice(addr, len(b)), b)
	if err := reProtectPages(addr, uintptr(len(b)), pageSize); err != nil {
		return fmt.Errorf("%w: %v", errProtect, err)
	}
	return nil
}

// nearStep is the distance between the addresses tried when pages must lie
// within rel32 reach of a target.
const nearStep = 1 << 24

// mapPages maps private read+write pages holding at least size bytes. A
// non-zero near asks for pages within rel32 reach of that address.
func mapPages(size int, near, pageSize uintptr) ([]byte, error) {
	length := pageSize * ((uintptr(size) + pageSize - 1) / pageSize)
	if length == 0 {
		length = pageSize
	}
	if near == 0 {
		return mmapAt(0, length)
	}
	for d := uintptr(nearStep); d < 1<<31; d += nearStep {
		hints := []uintptr{near + d}
		if near > d {
			hints = append(hints, near-d)
		}
		for _, hint := range hints {
			mem, err := mmapAt(hint&^(pageSize-1), length)
			if err != nil {
				return nil, err
			}
			p := slicePtr(mem)
			if !overflowsS32(near, p) && !overflowsS32(near, p+length) {
				return mem, nil
			}
			freeCode(mem)
		}
	}
	return nil, fmt.Errorf("%w: no free pages near %#x", errAlloc, near)
}

func mmapAt(hint, length uintptr) ([]byte, error) {
	p, err := unix.MmapPtr(-1, 0, unsafe.Pointer(hint), length,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errAlloc, err)
	}
	return unsafe.Slice((*byte)(p), length), nil
}

// sealCode makes pages filled by mapPages read+exec.
func sealCode(mem []byte) error {
	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return fmt.Errorf("%w: %v", errProtect, err)
	}
	return nil
}

// allocCode maps private pages anywhere, fills them with code and makes them
// read+exec.
func allocCode(code []byte, pageSize uintptr) ([]byte, error) {
	mem, err := mapPages(len(code), 0, pageSize)
	if err != nil {
		return nil, err
	}
	copy(mem, code)
	if err := sealCode(mem); err != nil {
		freeCode(mem)
		return nil, err
	}
	return mem, nil
}

func freeCode(mem []byte) error {
	return unix.MunmapPtr(unsafe.Pointer(unsafe.SliceData(mem)), uintptr(len(mem)))
}

func getPageSize() uintptr {
	return uintptr(unix.Getpagesize())
}
