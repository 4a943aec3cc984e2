package hir

import (
	"testing"

	"lavascript/internal/config"
)

func TestInlinePolicyFromConfigOverridesDefaults(t *testing.T) {
	p := InlinePolicyFromConfig(config.InlinerLimits{MaxCalleeBytecode: 10, MaxTotalInlinedBytecode: 20})
	if p.MaxCalleeBytecode != 10 {
		t.Fatalf("MaxCalleeBytecode: want 10, got %d", p.MaxCalleeBytecode)
	}
	if p.MaxTotalInlinedBytecode != 20 {
		t.Fatalf("MaxTotalInlinedBytecode: want 20, got %d", p.MaxTotalInlinedBytecode)
	}
	if p.MaxDepth != DefaultInlinePolicy().MaxDepth {
		t.Fatalf("MaxDepth: want the teacher-derived default preserved, got %d", p.MaxDepth)
	}
}

func TestInlinePolicyFromConfigZeroKeepsDefaults(t *testing.T) {
	p := InlinePolicyFromConfig(config.InlinerLimits{})
	def := DefaultInlinePolicy()
	if *p != *def {
		t.Fatalf("zero-valued limits: want defaults untouched, got %+v vs %+v", p, def)
	}
}

func TestInlinePolicyAllow(t *testing.T) {
	p := &InlinePolicy{MaxDepth: 2, MaxCalleeBytecode: 50, MaxTotalInlinedBytecode: 100}

	cases := []struct {
		name                                 string
		depth, calleeBytecode, budgetUsed    int
		want                                 bool
	}{
		{"within all limits", 0, 10, 0, true},
		{"at max depth", 2, 10, 0, false},
		{"callee too large", 0, 60, 0, false},
		{"zero-size callee rejected", 0, 0, 0, false},
		{"exceeds remaining budget", 1, 40, 70, false},
		{"exactly fills budget", 1, 30, 70, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := p.Allow(c.depth, c.calleeBytecode, c.budgetUsed); got != c.want {
				t.Fatalf("Allow(%d,%d,%d): want %t, got %t", c.depth, c.calleeBytecode, c.budgetUsed, c.want, got)
			}
		})
	}
}

func TestInlinePolicyAllowNilReceiver(t *testing.T) {
	var p *InlinePolicy
	if p.Allow(0, 1, 0) {
		t.Fatalf("Allow on nil policy: want false")
	}
}
