// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

//go:build windows

package allocheap

import (
	"errors"

	"golang.org/x/sys/windows"
)

// handleMap recovers the file-mapping handle backing a view returned by
// rawMmap, since Windows needs it back to tear the mapping down. Every
// entry point that touches it runs under heap_lock (see allocheap.go), so
// it needs no lock of its own.
var handleMap = map[uintptr]windows.Handle{}

// rawMmap is a two-step process on Windows: CreateFileMapping gets a
// handle backed by the system paging file, then MapViewOfFile gets an
// actual pointer into memory.
func rawMmap(size int) (uintptr, error) {
	maxSizeHigh := uint32(uint64(size) >> 32)
	maxSizeLow := uint32(uint64(size) & 0xFFFFFFFF)

	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, maxSizeHigh, maxSizeLow, nil)
	if h == 0 {
		return 0, err
	}

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if addr == 0 {
		windows.CloseHandle(h)
		return 0, err
	}

	handleMap[addr] = h
	return addr, nil
}

func rawMunmap(base uintptr, size int) error {
	if err := windows.UnmapViewOfFile(base); err != nil {
		return err
	}

	handle, ok := handleMap[base]
	if !ok {
		return errors.New("allocheap: unknown base address")
	}
	delete(handleMap, base)

	return windows.CloseHandle(handle)
}
