package cfg

import (
	"testing"

	"github.com/mickey951112/solang/internal/ast"
	"github.com/mickey951112/solang/internal/diag"
	"github.com/mickey951112/solang/internal/parser"
	"github.com/mickey951112/solang/internal/sema"
)

// buildFirst parses src, resolves it, and lowers the named function on the
// first declared contract into a CFG.
func buildFirst(t *testing.T, src, fnName string) (*CFG, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(nil)
	f := parser.ParseFile(0, []byte(src), bag)
	res := sema.ResolveFiles([]*ast.SourceFile{f}, bag)
	if bag.HasErrors() {
		t.Fatalf("unexpected resolve errors: %v", bag.All())
	}
	for _, fn := range res.NS.Functions {
		if fn.Name == fnName {
			g := Build(fn, res.NS, res, bag)
			return g, bag
		}
	}
	t.Fatalf("function %q not found", fnName)
	return nil, nil
}

func termKind(t *testing.T, term Terminator) string {
	switch term.(type) {
	case *BranchTerm:
		return "branch"
	case *CondBranchTerm:
		return "condbranch"
	case *ReturnTerm:
		return "return"
	case *UnreachableTerm:
		return "unreachable"
	}
	t.Fatalf("unknown terminator %T", term)
	return ""
}

func TestIfElseJoinsToSingleBlock(t *testing.T) {
	src := `
contract C {
	function pick(bool c) public pure returns (uint256) {
		uint256 x;
		if (c) {
			x = 1;
		} else {
			x = 2;
		}
		return x;
	}
}`
	g, _ := buildFirst(t, src, "pick")
	if g.Block(g.Entry).Term == nil {
		t.Fatalf("entry block has no terminator")
	}
	if termKind(t, g.Block(g.Entry).Term) != "condbranch" {
		t.Fatalf("expected entry to end in a condbranch, got %s", termKind(t, g.Block(g.Entry).Term))
	}
	var returns int
	for _, b := range g.Blocks {
		if b.Term != nil && termKind(t, b.Term) == "return" {
			returns++
		}
	}
	if returns != 1 {
		t.Fatalf("expected exactly one return block (then/else join before returning), got %d", returns)
	}
}

func TestWhileLoopHeaderAndBreak(t *testing.T) {
	src := `
contract C {
	function loop(uint256 n) public pure returns (uint256) {
		uint256 i;
		while (i < n) {
			if (i == 5) {
				break;
			}
			i = i + 1;
		}
		return i;
	}
}`
	g, _ := buildFirst(t, src, "loop")
	var condBranches int
	for _, b := range g.Blocks {
		if b.Term != nil {
			if _, ok := b.Term.(*CondBranchTerm); ok {
				condBranches++
			}
		}
	}
	// One for the while header, one for the inner if.
	if condBranches != 2 {
		t.Fatalf("expected 2 condbranches (loop header + inner if), got %d", condBranches)
	}
}

func TestShortCircuitAndJoinsViaSet(t *testing.T) {
	src := `
contract C {
	function both(bool a, bool b) public pure returns (bool) {
		return a && b;
	}
}`
	g, _ := buildFirst(t, src, "both")
	var sets int
	for _, b := range g.Blocks {
		for _, in := range b.Instrs {
			if _, ok := in.(*SetInstr); ok {
				sets++
			}
		}
	}
	if sets < 2 {
		t.Fatalf("expected at least 2 Set instructions joining && branches, got %d", sets)
	}
}

func TestNamedReturnSharesExitBlock(t *testing.T) {
	src := `
contract C {
	function f(uint256 x) public pure returns (uint256 result) {
		if (x > 0) {
			result = x;
			return result;
		}
		result = 0;
	}
}`
	g, _ := buildFirst(t, src, "f")
	var returns int
	for _, b := range g.Blocks {
		if b.Term != nil && termKind(t, b.Term) == "return" {
			returns++
		}
	}
	if returns != 1 {
		t.Fatalf("named-return function should desugar to exactly one shared exit/return block, got %d", returns)
	}
}

func TestUnreachableAfterReturnWarns(t *testing.T) {
	src := `
contract C {
	function f() public pure returns (uint256) {
		return 1;
		return 2;
	}
}`
	_, bag := buildFirst(t, src, "f")
	found := false
	for _, d := range bag.All() {
		if d.Code == diag.WarnUnreachable {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a WarnUnreachable diagnostic for code after return")
	}
}

func TestRequireLowersToAssertFailureAndContinuation(t *testing.T) {
	src := `
contract C {
	function f(uint256 x) public pure returns (uint256) {
		require(x > 0, "must be positive");
		return x;
	}
}`
	g, _ := buildFirst(t, src, "f")
	var sawAssertFailure, sawUnreachable bool
	for _, b := range g.Blocks {
		for _, in := range b.Instrs {
			if _, ok := in.(*AssertFailureInstr); ok {
				sawAssertFailure = true
			}
		}
		if b.Term != nil {
			if _, ok := b.Term.(*UnreachableTerm); ok {
				sawUnreachable = true
			}
		}
	}
	if !sawAssertFailure || !sawUnreachable {
		t.Fatalf("expected require() to lower to AssertFailure + an unreachable fail block")
	}
}

func TestEveryBlockHasExactlyOneTerminator(t *testing.T) {
	src := `
contract C {
	function f(uint256 x) public pure returns (uint256) {
		uint256 total;
		for (uint256 i = 0; i < x; i = i + 1) {
			total = total + i;
		}
		return total;
	}
}`
	g, _ := buildFirst(t, src, "f")
	for _, b := range g.Blocks {
		if b.Term == nil {
			t.Fatalf("block b%d has no terminator", b.Label)
		}
	}
}
