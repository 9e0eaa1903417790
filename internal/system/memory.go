package system

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// MemoryCheck is the outcome of a preflight check.
type MemoryCheck struct {
	Required  uint64
	Available uint64
}

func (m MemoryCheck) OK() bool { return m.Available >= m.Required }

func (m MemoryCheck) String() string {
	return fmt.Sprintf("нужно %s, доступно %s", FormatBytes(m.Required), FormatBytes(m.Available))
}

// CheckMemory compares what a render will hold in memory with what the
// host has available.
func CheckMemory(required uint64) (MemoryCheck, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return MemoryCheck{Required: required}, fmt.Errorf("failed to read memory stats: %w", err)
	}
	return MemoryCheck{Required: required, Available: vm.Available}, nil
}

// ProcessRSS returns the resident set size of this process.
func ProcessRSS() (uint64, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	info, err := p.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}

func FormatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
