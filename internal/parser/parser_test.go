package parser

import (
	"testing"

	"github.com/mickey951112/solang/internal/ast"
	"github.com/mickey951112/solang/internal/diag"
)

func parse(t *testing.T, src string) (*ast.SourceFile, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(nil)
	f := ParseFile(0, []byte(src), bag)
	return f, bag
}

func TestParseMinimalContract(t *testing.T) {
	f, bag := parse(t, `
pragma solidity ^0.8.0;
contract Demo {}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.All())
	}
	if len(f.Decls) != 1 {
		t.Fatalf("expected one declaration, got %d", len(f.Decls))
	}
	c, ok := f.Decls[0].(*ast.ContractDecl)
	if !ok || c.Name != "Demo" {
		t.Fatalf("expected contract Demo, got %#v", f.Decls[0])
	}
}

func TestParseInheritanceAndMembers(t *testing.T) {
	f, bag := parse(t, `
contract A {}
contract B is A {}
contract C is B, A {
    uint256 total;
    address public owner;

    event Transfer(address indexed from, address indexed to, uint256 value);

    function balanceOf(address who) public view returns (uint256) {
        return total;
    }
}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.All())
	}
	if len(f.Decls) != 3 {
		t.Fatalf("expected 3 decls, got %d", len(f.Decls))
	}
	c := f.Decls[2].(*ast.ContractDecl)
	if len(c.Bases) != 2 || c.Bases[0].Name != "B" || c.Bases[1].Name != "A" {
		t.Fatalf("unexpected bases: %#v", c.Bases)
	}
	var sawEvent, sawFunc, sawVars int
	for _, m := range c.Body {
		switch d := m.(type) {
		case *ast.EventDecl:
			sawEvent++
			if len(d.Params) != 3 || !d.Params[0].Indexed {
				t.Fatalf("unexpected event params: %#v", d.Params)
			}
		case *ast.FunctionDecl:
			sawFunc++
			if d.Mutability != ast.MutView || d.Visibility != ast.VisPublic {
				t.Fatalf("unexpected function modifiers: %#v", d)
			}
		case *ast.StateVarDecl:
			sawVars++
		}
	}
	if sawEvent != 1 || sawFunc != 1 || sawVars != 2 {
		t.Fatalf("unexpected member counts: events=%d funcs=%d vars=%d", sawEvent, sawFunc, sawVars)
	}
}

func TestParseControlFlowAndExpressions(t *testing.T) {
	f, bag := parse(t, `
contract Loop {
    function hitcount(uint256 n) public pure returns (uint256) {
        uint256 count = 0;
        for (uint256 i = 0; i < n; i++) {
            if (i % 2 == 0) {
                count = count + 1;
            } else {
                continue;
            }
        }
        return count;
    }
}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.All())
	}
	c := f.Decls[0].(*ast.ContractDecl)
	fn := c.Body[0].(*ast.FunctionDecl)
	if fn.Body == nil || len(fn.Body.Stmts) != 3 {
		t.Fatalf("unexpected function body: %#v", fn.Body)
	}
	forStmt, ok := fn.Body.Stmts[1].(*ast.ForStmt)
	if !ok {
		t.Fatalf("expected for statement, got %#v", fn.Body.Stmts[1])
	}
	if forStmt.Cond == nil || forStmt.Post == nil {
		t.Fatalf("expected for loop cond and post to be set")
	}
}

func TestParseModifiersAndRequire(t *testing.T) {
	f, bag := parse(t, `
contract Guarded {
    modifier onlyOwner() {
        require(msg.sender == owner, "not owner");
        _;
    }

    function withdraw(uint256 amount) public onlyOwner {
        revert InsufficientBalance(amount);
    }
}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.All())
	}
	c := f.Decls[0].(*ast.ContractDecl)
	if len(c.Body) != 2 {
		t.Fatalf("expected modifier and function, got %d members", len(c.Body))
	}
	fn := c.Body[1].(*ast.FunctionDecl)
	if len(fn.Modifiers) != 1 || fn.Modifiers[0].Name != "onlyOwner" {
		t.Fatalf("unexpected modifiers: %#v", fn.Modifiers)
	}
}

func TestParseEnumAndUsingFor(t *testing.T) {
	f, bag := parse(t, `
library MathLib {
    function double(uint256 x) internal pure returns (uint256) {
        return x * 2;
    }
}

contract Weekend {
    enum Day { Mon, Tue, Wed, Thu, Fri, Sat, Sun }
    using MathLib for uint256;
}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.All())
	}
	lib := f.Decls[0].(*ast.ContractDecl)
	if lib.Kind != ast.ContractKindLibrary {
		t.Fatalf("expected library kind, got %v", lib.Kind)
	}
	c := f.Decls[1].(*ast.ContractDecl)
	var sawEnum, sawUsing int
	for _, m := range c.Body {
		switch m.(type) {
		case *ast.EnumDecl:
			sawEnum++
		case *ast.UsingDirective:
			sawUsing++
		}
	}
	if sawEnum != 1 || sawUsing != 1 {
		t.Fatalf("expected one enum and one using directive, got enum=%d using=%d", sawEnum, sawUsing)
	}
}
