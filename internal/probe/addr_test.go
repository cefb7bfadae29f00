package probe

import "unsafe"

var readable = [1]byte{0x42}

func addrOf(b *byte) uintptr { return uintptr(unsafe.Pointer(b)) }
