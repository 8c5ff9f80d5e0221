package snark

import (
	"context"
	"fmt"

	"code.cloudfoundry.org/bytefmt"
	"github.com/shirou/gopsutil/v3/mem"
)

func checkMemory(ctx context.Context, required uint64) error {
	if required == 0 {
		return nil
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to read memory stats: %w", err)
	}
	if vm.Available < required {
		return fmt.Errorf("%w. required: %v, available: %v",
			ErrInsufficientMemory, bytefmt.ByteSize(required), bytefmt.ByteSize(vm.Available))
	}
	return nil
}
