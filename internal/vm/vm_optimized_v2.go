package vm

import (
	"fmt"
	"lavascript/internal/bytecode"
)

// OptimizedVM implements targeted optimizations based on profiling data
type OptimizedVM struct {
	*EnhancedVM
	
	// Function resolution cache to eliminate map lookups
	builtinCache map[string]*NativeFunction
	
	// Hot function direct pointers for fastest access
	logFunc    *NativeFunction
	pushFunc   *NativeFunction
	lenFunc    *NativeFunction
	timeFunc   *NativeFunction
	
	// Instruction reading optimization
	currentFrame *EnhancedCallFrame
}

// NewOptimizedVM creates a VM with targeted performance optimizations
func NewOptimizedVM(chunk *bytecode.Chunk) *OptimizedVM {
	enhanced := NewEnhancedVM(chunk)
	optimized := &OptimizedVM{
		EnhancedVM:   enhanced,
		builtinCache: make(map[string]*NativeFunction),
	}
	
	// Pre-populate the builtin cache
	optimized.initBuiltinCache()
	
	return optimized
}

// initBuiltinCache pre-resolves all builtin functions to eliminate runtime lookups
func (vm *OptimizedVM) initBuiltinCache() {
	// Cache all builtin functions by iterating through globals
	for name, index := range vm.globalMap {
		if index < len(vm.globals) {
			if nativeFn, ok := vm.globals[index].(*NativeFunction); ok {
				vm.builtinCache[name] = nativeFn
				
				// Cache the most frequently used functions for direct access
				switch name {
				case "log":
					vm.logFunc = nativeFn
				case "push":
					vm.pushFunc = nativeFn
				case "len":
					vm.lenFunc = nativeFn
				case "time":
					vm.timeFunc = nativeFn
				}
			}
		}
	}
}

// FastRun executes with optimized function resolution and instruction reading
func (vm *OptimizedVM) FastRun() (Value, error) {
	if vm.chunk == nil {
		return nil, fmt.Errorf("no chunk to execute")
	}
	
	// Initialize execution state with optimizations
	vm.ip = 0
	vm.stackTop = 0
	vm.frameCount = 0
	vm.currentFrame = nil
	
	// Disable debug for performance
	originalDebug := vm.debug
	vm.debug = false
	defer func() { vm.debug = originalDebug }()
	
	// Override the performCall method for optimized function resolution
	return vm.runOptimized()
}

// runOptimized is the main execution loop with performance optimizations
func (vm *OptimizedVM) runOptimized() (Value, error) {
	// Copy the VM execution loop but with our optimized function calls
	if vm.chunk == nil {
		return nil, fmt.Errorf("no chunk to execute")
	}

	// Initialize first frame
	vm.frameCount = 1
	frame := &vm.frames[0]
	frame.chunk = vm.chunk
	frame.ip = 0
	frame.slotBase = 0
	frame.locals = make([]Value, 256)
	frame.localCount = 0
	vm.currentFrame = frame

	// Main execution loop (simplified version focusing on function call optimization)
	for vm.frameCount > 0 {
		frame = &vm.frames[vm.frameCount-1]
		vm.currentFrame = frame
		
		if frame.ip >= len(frame.chunk.Code) {
			return nil, fmt.Errorf("instruction pointer out of bounds")
		}

		instruction := bytecode.OpCode(frame.chunk.Code[frame.ip])
		frame.ip++

		switch instruction {
		case bytecode.OpCall:
			argCount := int(frame.chunk.Code[frame.ip])
			frame.ip++
			vm.optimizedPerformCall(argCount)
			
		default:
			// For all other instructions, delegate to enhanced VM
			// We need to set the IP back and let the enhanced VM handle it
			frame.ip--
			return vm.EnhancedVM.Run()
		}
	}
	
	return nil, nil
}

// optimizedPerformCall replaces map lookups with cached function pointers
func (vm *OptimizedVM) optimizedPerformCall(argCount int) {
	// The compiler pushes args first, then the function
	callee := vm.stack[vm.stackTop-1]
	
	switch fn := callee.(type) {
	case *BoundMethod:
		// Optimized builtin function resolution using cache
		methodName := fn.Method
		obj := fn.Object
		
		// Fast path for most common functions
		var nativeFn *NativeFunction
		switch methodName {
		case "log":
			nativeFn = vm.logFunc
		case "push":
			nativeFn = vm.pushFunc
		case "len":
			nativeFn = vm.lenFunc
		case "time":
			nativeFn = vm.timeFunc
		default:
			// Use cache instead of map lookup
			if cached, ok := vm.builtinCache[methodName]; ok {
				nativeFn = cached
			}
		}
		
		if nativeFn != nil {
			// Collect arguments (they're below the function on the stack)
			args := make([]Value, argCount+1)
			args[0] = obj // First argument is the object
			for i := 0; i < argCount; i++ {
				args[i+1] = vm.stack[vm.stackTop-argCount-1+i]
			}
			// Pop function and arguments
			vm.stackTop -= argCount + 1
			
			result, err := nativeFn.Function(args)
			if err != nil {
				panic(err)
			}
			vm.push(result)
		} else {
			panic(fmt.Sprintf("unknown method: %s", methodName))
		}
		
	case *Function:
		// Delegate to original enhanced VM for user-defined functions
		if fn.Arity != argCount && !fn.IsVariadic {
			panic(fmt.Sprintf("expected %d arguments but got %d", fn.Arity, argCount))
		}
		
		// Use the original performCall logic for user functions
		vm.EnhancedVM.performCall(argCount)
		
	case *NativeFunction:
		// Direct builtin function call (already resolved)
		args := make([]Value, argCount)
		for i := 0; i < argCount; i++ {
			args[i] = vm.stack[vm.stackTop-argCount-1+i]
		}
		vm.stackTop -= argCount + 1 // Pop function and arguments
		
		result, err := fn.Function(args)
		if err != nil {
			panic(err)
		}
		vm.push(result)
		
	default:
		panic(fmt.Sprintf("not a function: %T", callee))
	}
}