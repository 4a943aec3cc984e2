package bcanalysis

import (
	"testing"

	"lavascript/internal/vmregister"
)

// straightLineCode builds ADD R0 R1 R2; RETURN R0 1 -- no branches, one block.
func straightLineCode() []vmregister.Instruction {
	return []vmregister.Instruction{
		vmregister.CreateABC(vmregister.OP_ADD, 0, 1, 2),
		vmregister.CreateABC(vmregister.OP_RETURN, 0, 2, 0),
	}
}

func TestAnalyzeStraightLineIsSingleBlock(t *testing.T) {
	info := Analyze(Source{Code: straightLineCode(), NumRegisters: 3})

	if info.NumInstr != 2 {
		t.Fatalf("NumInstr: want 2, got %d", info.NumInstr)
	}
	if len(info.BlockStart) != 1 {
		t.Fatalf("BlockStart: want a single basic block for straight-line code, got %d blocks", len(info.BlockStart))
	}
	if info.BlockOf[0] != info.BlockOf[1] {
		t.Fatalf("BlockOf: want both instructions in the same block, got %d and %d", info.BlockOf[0], info.BlockOf[1])
	}
}

// branchingCode builds:
//
//	0: JMP +1        (skip instruction 1)
//	1: ADD R0 R1 R2  (dead, skipped)
//	2: RETURN R0 1
func branchingCode() []vmregister.Instruction {
	return []vmregister.Instruction{
		vmregister.CreateAsBx(vmregister.OP_JMP, 0, 1),
		vmregister.CreateABC(vmregister.OP_ADD, 0, 1, 2),
		vmregister.CreateABC(vmregister.OP_RETURN, 0, 2, 0),
	}
}

func TestAnalyzeBranchSplitsBlocks(t *testing.T) {
	info := Analyze(Source{Code: branchingCode(), NumRegisters: 3})

	if len(info.BlockStart) < 2 {
		t.Fatalf("BlockStart: want at least 2 basic blocks once a jump target exists, got %d", len(info.BlockStart))
	}
	if info.BlockOf[0] == info.BlockOf[2] {
		t.Fatalf("BlockOf: want the jump source and its target in different blocks")
	}
}

func TestAnalyzeEmptyCode(t *testing.T) {
	info := Analyze(Source{Code: nil, NumRegisters: 0})
	if info.NumInstr != 0 {
		t.Fatalf("NumInstr: want 0 for empty code, got %d", info.NumInstr)
	}
	if len(info.Loops) != 0 {
		t.Fatalf("Loops: want none for empty code, got %d", len(info.Loops))
	}
}
