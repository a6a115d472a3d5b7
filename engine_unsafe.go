package ptplay

import (
	"unsafe"
)

func moduleSize(m *module) uint {
	memoryUsage := int(unsafe.Sizeof(*m))
	for _, inst := range m.instruments {
		memoryUsage += len(inst.sample)
	}
	memoryUsage += len(m.notes) * int(unsafe.Sizeof(patternNote{}))

	return uint(memoryUsage)
}

// bytesAsInt8 reinterprets raw sample bytes without copying them.
func bytesAsInt8(b []byte) []int8 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*int8)(unsafe.Pointer(&b[0])), len(b))
}
