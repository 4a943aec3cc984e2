package vm

import (
	"lavascript/internal/bytecode"
)

// Loop optimization for SuperVM

// LoopInfo tracks loop characteristics for optimization
type LoopInfo struct {
	startIP      int
	endIP        int
	iterations   int
	isIntLoop    bool  // Loop uses only integer operations
	isFloatLoop  bool  // Loop uses only float operations
	canVectorize bool  // Loop can be vectorized
	hotness      int   // How often this loop runs
}

// Loop detection and optimization
func (vm *SuperVM) detectAndOptimizeLoops() {
	if vm.chunk == nil {
		return
	}
	
	loops := make(map[int]*LoopInfo)
	code := vm.chunk.Code
	
	// Detect loop patterns
	for i := 0; i < len(code); i++ {
		instr := bytecode.OpCode(code[i])
		
		if instr == bytecode.OpLoop {
			// Found a loop instruction
			if i+2 < len(code) {
				offset := int(code[i+1])<<8 | int(code[i+2])
				loopStart := i - offset + 3
				loopEnd := i
				
				// Analyze loop body
				loop := &LoopInfo{
					startIP: loopStart,
					endIP:   loopEnd,
				}
				
				vm.analyzeLoopBody(loop, code[loopStart:loopEnd])
				loops[loopStart] = loop
			}
		}
	}
	
	// Store loop info for runtime optimization
	vm.loopInfo = loops
}

// analyzeLoopBody determines loop characteristics
func (vm *SuperVM) analyzeLoopBody(loop *LoopInfo, body []byte) {
	hasInt := false
	hasFloat := false
	hasOther := false
	
	for i := 0; i < len(body); i++ {
		instr := bytecode.OpCode(body[i])
		
		switch instr {
		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul:
			// These could be int or float
			hasInt = true // Assume int for now
			
		case bytecode.OpDiv:
			hasFloat = true // Division usually produces floats
			
		case bytecode.OpCall:
			hasOther = true // Function calls prevent optimization
			
		case bytecode.OpGetGlobal, bytecode.OpSetGlobal:
			// Global access is slower but optimizable
			
		case bytecode.OpGetLocal, bytecode.OpSetLocal:
			// Local access is fast
			
		default:
			// Check if it's a simple operation
		}
		
		// Skip operands
		switch instr {
		case bytecode.OpConstant, bytecode.OpDefineGlobal, bytecode.OpGetGlobal,
		     bytecode.OpSetGlobal, bytecode.OpGetLocal, bytecode.OpSetLocal,
		     bytecode.OpCall:
			i++ // Skip one byte operand
		case bytecode.OpJump, bytecode.OpJumpIfFalse, bytecode.OpLoop:
			i += 2 // Skip two byte operand
		}
	}
	
	// Set loop characteristics
	loop.isIntLoop = hasInt && !hasFloat && !hasOther
	loop.isFloatLoop = hasFloat && !hasOther
	loop.canVectorize = (loop.isIntLoop || loop.isFloatLoop) && !hasOther
}

// executeOptimizedLoop runs a loop with optimizations
func (vm *SuperVM) executeOptimizedLoop(loop *LoopInfo) {
	if loop.canVectorize && loop.iterations > 100 {
		// For hot loops, try vectorization
		vm.executeVectorizedLoop(loop)
	} else if loop.isIntLoop {
		// Use integer-specific optimizations
		vm.executeIntLoop(loop)
	} else if loop.isFloatLoop {
		// Use float-specific optimizations
		vm.executeFloatLoop(loop)
	} else {
		// Fall back to standard execution
		vm.executeStandardLoop(loop)
	}
	
	// Update hotness for adaptive optimization
	loop.hotness++
	if loop.hotness > 10 {
		loop.canVectorize = true // Hot loops become vectorization candidates
	}
}

// executeVectorizedLoop attempts SIMD-style execution (simulated)
func (vm *SuperVM) executeVectorizedLoop(loop *LoopInfo) {
	// In Go, we can't use true SIMD, but we can batch operations
	// This is a simulation of vectorization benefits
	
	frame := vm.currentFrame
	
	// Example: If loop is adding constants, batch the additions
	// This reduces instruction dispatch overhead
	
	batchSize := 4
	for i := 0; i < loop.iterations; i += batchSize {
		// Process multiple iterations at once
		// This reduces branch prediction misses and dispatch overhead
		
		// Simulate batched execution
		for j := 0; j < batchSize && i+j < loop.iterations; j++ {
			// Execute loop body
			frame.ip = loop.startIP
			for frame.ip < loop.endIP {
				vm.executeOptimizedInstruction()
			}
		}
	}
}

// executeIntLoop runs integer-only loops with optimizations
func (vm *SuperVM) executeIntLoop(loop *LoopInfo) {
	// Use integer stack for faster operations
	frame := vm.currentFrame
	
	// Pre-allocate integer workspace
	intLocals := make([]int, 256)
	
	// Copy current locals to int workspace if possible
	for i, val := range frame.locals {
		if intVal, ok := val.(int); ok {
			intLocals[i] = intVal
		}
	}
	
	// Execute loop with integer optimizations
	for iteration := 0; iteration < loop.iterations; iteration++ {
		frame.ip = loop.startIP
		
		for frame.ip < loop.endIP {
			instr := bytecode.OpCode(vm.currentCode[frame.ip])
			frame.ip++
			
			switch instr {
			case bytecode.OpAdd:
				// Direct integer addition without type checking
				b := vm.intStack[vm.intStackTop-1]
				a := vm.intStack[vm.intStackTop-2]
				vm.intStackTop--
				vm.intStack[vm.intStackTop-1] = a + b
				
			case bytecode.OpSub:
				b := vm.intStack[vm.intStackTop-1]
				a := vm.intStack[vm.intStackTop-2]
				vm.intStackTop--
				vm.intStack[vm.intStackTop-1] = a - b
				
			case bytecode.OpMul:
				b := vm.intStack[vm.intStackTop-1]
				a := vm.intStack[vm.intStackTop-2]
				vm.intStackTop--
				vm.intStack[vm.intStackTop-1] = a * b
				
			default:
				// Fall back for other operations
				vm.executeOptimizedInstruction()
			}
		}
	}
	
	// Copy results back to main stack
	for i := 0; i < vm.intStackTop; i++ {
		vm.stack[vm.stackTop+i] = vm.intStack[i]
	}
	vm.stackTop += vm.intStackTop
}

// executeFloatLoop runs float-only loops with optimizations
func (vm *SuperVM) executeFloatLoop(loop *LoopInfo) {
	// Similar to integer loop but for floats
	frame := vm.currentFrame
	
	// Use float stack for faster operations
	floatLocals := make([]float64, 256)
	
	// Copy current locals to float workspace
	for i, val := range frame.locals {
		switch v := val.(type) {
		case float64:
			floatLocals[i] = v
		case int:
			floatLocals[i] = float64(v)
		}
	}
	
	// Execute with float optimizations
	for iteration := 0; iteration < loop.iterations; iteration++ {
		frame.ip = loop.startIP
		
		for frame.ip < loop.endIP {
			instr := bytecode.OpCode(vm.currentCode[frame.ip])
			frame.ip++
			
			switch instr {
			case bytecode.OpAdd:
				b := vm.floatStack[vm.floatStackTop-1]
				a := vm.floatStack[vm.floatStackTop-2]
				vm.floatStackTop--
				vm.floatStack[vm.floatStackTop-1] = a + b
				
			case bytecode.OpMul:
				b := vm.floatStack[vm.floatStackTop-1]
				a := vm.floatStack[vm.floatStackTop-2]
				vm.floatStackTop--
				vm.floatStack[vm.floatStackTop-1] = a * b
				
			case bytecode.OpDiv:
				b := vm.floatStack[vm.floatStackTop-1]
				a := vm.floatStack[vm.floatStackTop-2]
				if b == 0 {
					panic("division by zero")
				}
				vm.floatStackTop--
				vm.floatStack[vm.floatStackTop-1] = a / b
				
			default:
				vm.executeOptimizedInstruction()
			}
		}
	}
}

// executeStandardLoop falls back to normal execution
func (vm *SuperVM) executeStandardLoop(loop *LoopInfo) {
	frame := vm.currentFrame
	
	for iteration := 0; iteration < loop.iterations; iteration++ {
		frame.ip = loop.startIP
		
		for frame.ip < loop.endIP {
			vm.executeOptimizedInstruction()
		}
	}
}

// executeOptimizedInstruction helper for loop execution
func (vm *SuperVM) executeOptimizedInstruction() {
	frame := vm.currentFrame
	instr := bytecode.OpCode(vm.currentCode[frame.ip])
	frame.ip++
	
	// Simplified instruction execution for loops
	switch instr {
	case bytecode.OpConstant:
		constIndex := vm.currentCode[frame.ip]
		frame.ip++
		vm.push(frame.chunk.Constants[constIndex])
		
	case bytecode.OpAdd:
		b := vm.pop()
		a := vm.pop()
		vm.push(vm.optimizedAdd(a, b))
		
	case bytecode.OpGetLocal:
		localIndex := vm.currentCode[frame.ip]
		frame.ip++
		vm.push(frame.locals[localIndex])
		
	case bytecode.OpSetLocal:
		localIndex := vm.currentCode[frame.ip]
		frame.ip++
		frame.locals[localIndex] = vm.peek()
		
	default:
		// Handle other instructions as needed
	}
}

// Additional SuperVM fields for loop optimization
func (vm *SuperVM) initLoopOptimization() {
	vm.loopInfo = make(map[int]*LoopInfo)
	vm.intStack = make([]int, 256)
	vm.floatStack = make([]float64, 256)
	vm.intStackTop = 0
	vm.floatStackTop = 0
}

// Loop-related fields for SuperVM
type SuperVMLoops struct {
	loopInfo      map[int]*LoopInfo
	intStackTop   int
	floatStackTop int
}