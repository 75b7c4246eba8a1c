package sema

import (
	"testing"

	"github.com/mickey951112/solang/internal/ast"
	"github.com/mickey951112/solang/internal/diag"
	"github.com/mickey951112/solang/internal/parser"
)

func resolve(t *testing.T, src string) (*Result, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(nil)
	f := parser.ParseFile(0, []byte(src), bag)
	res := ResolveFiles([]*ast.SourceFile{f}, bag)
	return res, bag
}

func TestLinearizationDiamondExample(t *testing.T) {
	res, bag := resolve(t, `
contract A {}
contract B is A {}
contract C is B, A {}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.All())
	}
	c, ok := res.NS.ContractByName("C")
	if !ok {
		t.Fatalf("contract C not found")
	}
	var names []string
	for _, id := range c.Linearized {
		names = append(names, res.NS.Contracts[id].Name)
	}
	want := []string{"C", "B", "A"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v, want %v", names, want)
		}
	}
}

func TestStorageSlotPackingAcrossDeclaration(t *testing.T) {
	res, bag := resolve(t, `
contract S {
    bool flag;
    uint8 small;
    uint256 big;
    address owner;
}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.All())
	}
	c, _ := res.NS.ContractByName("S")
	flag := res.NS.Variables[c.StateVars[0]]
	small := res.NS.Variables[c.StateVars[1]]
	big := res.NS.Variables[c.StateVars[2]]
	owner := res.NS.Variables[c.StateVars[3]]
	if flag.Slot.Index != small.Slot.Index {
		t.Fatalf("expected bool and uint8 to share a slot")
	}
	if big.Slot.Index == small.Slot.Index {
		t.Fatalf("expected uint256 to occupy its own slot")
	}
	if owner.Slot.Index != big.Slot.Index+1 {
		t.Fatalf("expected address to start a fresh slot after uint256")
	}
}

func TestEnumWeekendDeclared(t *testing.T) {
	res, bag := resolve(t, `
contract W {
    enum Day { Mon, Tue, Wed, Thu, Fri, Sat, Sun }

    function isWeekend(Day d) public pure returns (bool) {
        return d == Day.Sat;
    }
}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.All())
	}
	c, _ := res.NS.ContractByName("W")
	if len(c.Enums) != 1 || res.NS.Enums[c.Enums[0]].Name != "Day" || len(res.NS.Enums[c.Enums[0]].Values) != 7 {
		t.Fatalf("unexpected enum declaration: %#v", c.Enums)
	}
}

func TestCastTruncationWarning(t *testing.T) {
	_, bag := resolve(t, `
contract T {
    function shrink(uint256 x) public pure returns (uint8) {
        return uint8(x);
    }
}
`)
	var sawWarn bool
	for _, d := range bag.All() {
		if d.Code == diag.ErrWouldTruncate {
			sawWarn = true
		}
	}
	if !sawWarn {
		t.Fatalf("expected a truncation warning for uint256->uint8 cast, got %v", bag.All())
	}
}

func TestAddressChecksumRejectsBadCapitalization(t *testing.T) {
	good := "0x" + EIP55Checksum("5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	_, bag := resolve(t, `
contract C {
    address constant OWNER = `+good+`;
}
`)
	if bag.HasErrors() {
		t.Fatalf("expected a correctly-checksummed literal to be accepted: %v", bag.All())
	}

	bad := "0x5Aaeb6053F3E94C9b9A09f33669435E7Ef1BeAed" // deliberately wrong capitalization
	_, bag2 := resolve(t, `
contract C {
    address constant OWNER = `+bad+`;
}
`)
	var sawChecksumErr bool
	for _, d := range bag2.All() {
		if d.Code == diag.ErrAddressChecksum {
			sawChecksumErr = true
		}
	}
	if !sawChecksumErr {
		t.Fatalf("expected a checksum error for mis-capitalized address literal, got %v", bag2.All())
	}
}

func TestConstantFoldingDetectsOverflow(t *testing.T) {
	_, bag := resolve(t, `
contract C {
    uint256 constant HUGE = (2 ** 256);
}
`)
	var sawOOB bool
	for _, d := range bag.All() {
		if d.Code == diag.ErrConstOOB {
			sawOOB = true
		}
	}
	if !sawOOB {
		t.Fatalf("expected constant-overflow diagnostic, got %v", bag.All())
	}
}

func TestAddressChecksumRejectsAllSameCase(t *testing.T) {
	_, bag := resolve(t, `
contract C {
    address constant OWNER = 0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed;
}
`)
	var sawChecksumErr bool
	for _, d := range bag.All() {
		if d.Code == diag.ErrAddressChecksum {
			sawChecksumErr = true
		}
	}
	if !sawChecksumErr {
		t.Fatalf("expected an all-lowercase address literal to still fail its checksum, got %v", bag.All())
	}
}

func TestVarDeclRejectsNarrowOverflow(t *testing.T) {
	_, bag := resolve(t, `
contract C {
    function f() public {
        uint8 x = 2 ** 8;
    }
}
`)
	var sawOOB bool
	for _, d := range bag.All() {
		if d.Code == diag.ErrConstOOB {
			sawOOB = true
		}
	}
	if !sawOOB {
		t.Fatalf("expected uint8 x = 2**8 to be rejected, got %v", bag.All())
	}

	_, bag2 := resolve(t, `
contract C {
    function f() public {
        uint8 x = 2 ** 8 - 1;
    }
}
`)
	if bag2.HasErrors() {
		t.Fatalf("expected uint8 x = 2**8-1 to be accepted, got %v", bag2.All())
	}
}

func TestStorageSlotsContinueAcrossInheritance(t *testing.T) {
	res, bag := resolve(t, `
contract A { uint256 x; }
contract B is A { uint256 y; }
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.All())
	}
	b, ok := res.NS.ContractByName("B")
	if !ok {
		t.Fatalf("contract B not found")
	}
	if len(b.StateVars) != 1 {
		t.Fatalf("expected B to declare exactly one state variable, got %d", len(b.StateVars))
	}
	y := res.NS.Variables[b.StateVars[0]]
	if y.Slot.Index != 1 {
		t.Fatalf("expected B.y to continue at slot 1 after A.x, got slot %d", y.Slot.Index)
	}
}

func TestUsingForDispatchesToLibraryFunction(t *testing.T) {
	res, bag := resolve(t, `
library Lib {
    function double(uint256 v) public returns (uint256) {
        return v * 2;
    }
}
contract C {
    using Lib for uint256;
    function f(uint256 v) public returns (uint256) {
        return v.double();
    }
}
`)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.All())
	}
	var found bool
	for call, fn := range res.CallTarget {
		if fn.Name == "double" {
			found = true
			if _, ok := res.UsingReceiver[call]; !ok {
				t.Fatalf("expected v.double() to record a using-for receiver")
			}
		}
	}
	if !found {
		t.Fatalf("expected v.double() to resolve to Lib.double")
	}
}

func TestMappingIllegalAsParamOrReturn(t *testing.T) {
	_, bag := resolve(t, `
contract C {
    function f(mapping(uint256 => uint256) m) public {}
}
`)
	var sawParam bool
	for _, d := range bag.All() {
		if d.Code == diag.ErrIllegalLocation {
			sawParam = true
		}
	}
	if !sawParam {
		t.Fatalf("expected a mapping parameter to be rejected, got %v", bag.All())
	}

	_, bag2 := resolve(t, `
contract C {
    function f() public returns (mapping(uint256 => uint256) m) {}
}
`)
	var sawReturn bool
	for _, d := range bag2.All() {
		if d.Code == diag.ErrIllegalLocation {
			sawReturn = true
		}
	}
	if !sawReturn {
		t.Fatalf("expected a mapping return type to be rejected, got %v", bag2.All())
	}
}

func TestMutabilityRejectsStorageWriteInViewFunction(t *testing.T) {
	_, bag := resolve(t, `
contract C {
    uint256 x;
    function f() public view {
        x = 1;
    }
}
`)
	var sawViolation bool
	for _, d := range bag.All() {
		if d.Code == diag.ErrMutability {
			sawViolation = true
		}
	}
	if !sawViolation {
		t.Fatalf("expected a view function writing storage to be rejected, got %v", bag.All())
	}
}

func TestMutabilityRejectsStorageReadInPureFunction(t *testing.T) {
	_, bag := resolve(t, `
contract C {
    uint256 x;
    function f() public pure returns (uint256) {
        return x;
    }
}
`)
	var sawViolation bool
	for _, d := range bag.All() {
		if d.Code == diag.ErrMutability {
			sawViolation = true
		}
	}
	if !sawViolation {
		t.Fatalf("expected a pure function reading storage to be rejected, got %v", bag.All())
	}
}

func TestMutabilityAllowsViewFunctionToReadStorage(t *testing.T) {
	_, bag := resolve(t, `
contract C {
    uint256 x;
    function f() public view returns (uint256) {
        return x;
    }
}
`)
	for _, d := range bag.All() {
		if d.Code == diag.ErrMutability {
			t.Fatalf("expected a view function reading storage to be accepted, got %v", bag.All())
		}
	}
}
