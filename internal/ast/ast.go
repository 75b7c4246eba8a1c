// Package ast defines the syntax tree the parser builds and every later
// stage (resolver, CFG builder, optimizer, code generator) walks. Nodes
// carry unresolved syntax (TypeExpr, not types.Type; Ident, not a resolved
// symbol id); internal/sema is what turns syntax into the typed Namespace.
package ast

import "github.com/mickey951112/solang/internal/source"

// Node is implemented by every AST node so a diagnostic can always anchor
// itself to the syntax that produced it.
type Node interface {
	Span() source.Span
}

// SourceFile is the root node for one parsed unit.
type SourceFile struct {
	Pragmas []*Pragma
	Imports []*Import
	Decls   []Decl
	Sp      source.Span
}

func (f *SourceFile) Span() source.Span { return f.Sp }

type Pragma struct {
	Text string
	Sp   source.Span
}

func (p *Pragma) Span() source.Span { return p.Sp }

type Import struct {
	Path  string
	Alias string
	Sp    source.Span
}

func (i *Import) Span() source.Span { return i.Sp }

// Decl is a top-level or contract-body declaration.
type Decl interface {
	Node
	declNode()
}

// ContractKind distinguishes the four contract-like declaration forms the
// resolver treats as distinct (§3 "Full contract-kind distinction").
type ContractKind int

const (
	ContractKindContract ContractKind = iota
	ContractKindInterface
	ContractKindLibrary
	ContractKindAbstract
)

func (k ContractKind) String() string {
	switch k {
	case ContractKindInterface:
		return "interface"
	case ContractKindLibrary:
		return "library"
	case ContractKindAbstract:
		return "abstract contract"
	default:
		return "contract"
	}
}

type InheritSpecifier struct {
	Name string
	Args []Expr
	Sp   source.Span
}

func (s *InheritSpecifier) Span() source.Span { return s.Sp }

// ContractDecl covers contract, interface, library, and abstract contract
// declarations; Kind tells the resolver which rules apply (§3).
type ContractDecl struct {
	Kind  ContractKind
	Name  string
	Bases []*InheritSpecifier
	Body  []Decl
	Doc   string
	Sp    source.Span
}

func (d *ContractDecl) Span() source.Span { return d.Sp }
func (*ContractDecl) declNode()           {}

type StructField struct {
	Name string
	Type TypeExpr
	Sp   source.Span
}

type StructDecl struct {
	Name   string
	Fields []*StructField
	Sp     source.Span
}

func (d *StructDecl) Span() source.Span { return d.Sp }
func (*StructDecl) declNode()           {}

type EnumDecl struct {
	Name   string
	Values []string
	Sp     source.Span
}

func (d *EnumDecl) Span() source.Span { return d.Sp }
func (*EnumDecl) declNode()           {}

// UsingDirective attaches a library's free functions to TargetType as
// methods (§3 "using X for T library-function dispatch").
type UsingDirective struct {
	LibraryName string
	TargetType  TypeExpr // nil means "for *", attach to every type
	Sp          source.Span
}

func (d *UsingDirective) Span() source.Span { return d.Sp }
func (*UsingDirective) declNode()           {}

type Visibility int

const (
	VisDefault Visibility = iota
	VisPublic
	VisPrivate
	VisInternal
	VisExternal
)

type Mutability int

const (
	MutNonPayable Mutability = iota
	MutPure
	MutView
	MutPayable
)

type StateVarDecl struct {
	Name       string
	Type       TypeExpr
	Visibility Visibility
	Constant   bool
	Immutable  bool
	Init       Expr
	Doc        string
	Sp         source.Span
}

func (d *StateVarDecl) Span() source.Span { return d.Sp }
func (*StateVarDecl) declNode()           {}

type EventParam struct {
	Name    string
	Type    TypeExpr
	Indexed bool
}

type EventDecl struct {
	Name      string
	Params    []*EventParam
	Anonymous bool
	Sp        source.Span
}

func (d *EventDecl) Span() source.Span { return d.Sp }
func (*EventDecl) declNode()           {}

type ErrorDecl struct {
	Name   string
	Params []*Param
	Sp     source.Span
}

func (d *ErrorDecl) Span() source.Span { return d.Sp }
func (*ErrorDecl) declNode()           {}

// FunctionKind distinguishes ordinary functions from the special forms
// that each carry distinct resolver rules (§3 "receive/fallback as
// distinct special functions").
type FunctionKind int

const (
	FuncKindFunction FunctionKind = iota
	FuncKindConstructor
	FuncKindModifier
	FuncKindReceive
	FuncKindFallback
)

type DataLocation int

const (
	LocDefault DataLocation = iota
	LocStorage
	LocMemory
	LocCalldata
)

type Param struct {
	Name     string
	Type     TypeExpr
	Location DataLocation
	Sp       source.Span
}

func (p *Param) Span() source.Span { return p.Sp }

type ModifierInvocation struct {
	Name string
	Args []Expr
	Sp   source.Span
}

// FunctionDecl covers every callable contract member: ordinary functions,
// the constructor, modifiers, and the receive/fallback special functions.
type FunctionDecl struct {
	Kind             FunctionKind
	Name             string
	Params           []*Param
	Returns          []*Param
	Visibility       Visibility
	Mutability       Mutability
	Virtual          bool
	Override         bool
	Modifiers        []*ModifierInvocation
	SelectorOverride string
	Body             *BlockStmt // nil for an interface member or unimplemented abstract function
	Doc              string
	Sp               source.Span
}

func (d *FunctionDecl) Span() source.Span { return d.Sp }
func (*FunctionDecl) declNode()           {}

// TypeExpr is unresolved type syntax, as written by the programmer, before
// internal/sema binds it to a types.Type.
type TypeExpr interface {
	Node
	typeExprNode()
}

// ElementaryType is a built-in type keyword: bool, address, address payable,
// string, bytes, bytesN, intN, uintN.
type ElementaryType struct {
	Name    string // "bool", "address", "string", "bytes"
	Payable bool   // only meaningful when Name == "address"
	Width   int    // bit width for int/uint, byte count for bytesN; 0 otherwise
	Sp      source.Span
}

func (t *ElementaryType) Span() source.Span { return t.Sp }
func (*ElementaryType) typeExprNode()       {}

// NamedType is a reference to a struct, enum, or contract by name, resolved
// by internal/sema against the Namespace.
type NamedType struct {
	Name string
	Sp   source.Span
}

func (t *NamedType) Span() source.Span { return t.Sp }
func (*NamedType) typeExprNode()       {}

// ArrayType is fixed-length when Length is non-nil, dynamic otherwise.
type ArrayType struct {
	Elem   TypeExpr
	Length Expr
	Sp     source.Span
}

func (t *ArrayType) Span() source.Span { return t.Sp }
func (*ArrayType) typeExprNode()       {}

type MappingType struct {
	Key   TypeExpr
	Value TypeExpr
	Sp    source.Span
}

func (t *MappingType) Span() source.Span { return t.Sp }
func (*MappingType) typeExprNode()       {}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

type BlockStmt struct {
	Stmts []Stmt
	Sp    source.Span
}

func (s *BlockStmt) Span() source.Span { return s.Sp }
func (*BlockStmt) stmtNode()           {}

// VarDeclStmt covers both single declarations (`let x: uint256 = 1;`) and
// tuple destructuring (`(bool ok, uint256 v) = f();`); Types[i] is nil
// where the declaration omits an explicit type and relies on inference.
type VarDeclStmt struct {
	Names []string
	Types []TypeExpr
	Init  Expr
	Sp    source.Span
}

func (s *VarDeclStmt) Span() source.Span { return s.Sp }
func (*VarDeclStmt) stmtNode()           {}

type ExprStmt struct {
	X  Expr
	Sp source.Span
}

func (s *ExprStmt) Span() source.Span { return s.Sp }
func (*ExprStmt) stmtNode()           {}

type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt // nil when there is no else branch
	Sp   source.Span
}

func (s *IfStmt) Span() source.Span { return s.Sp }
func (*IfStmt) stmtNode()           {}

type WhileStmt struct {
	Cond Expr
	Body Stmt
	Sp   source.Span
}

func (s *WhileStmt) Span() source.Span { return s.Sp }
func (*WhileStmt) stmtNode()           {}

type DoWhileStmt struct {
	Body Stmt
	Cond Expr
	Sp   source.Span
}

func (s *DoWhileStmt) Span() source.Span { return s.Sp }
func (*DoWhileStmt) stmtNode()           {}

type ForStmt struct {
	Init Stmt // may be nil
	Cond Expr // may be nil
	Post Stmt // may be nil
	Body Stmt
	Sp   source.Span
}

func (s *ForStmt) Span() source.Span { return s.Sp }
func (*ForStmt) stmtNode()           {}

type ReturnStmt struct {
	Values []Expr
	Sp     source.Span
}

func (s *ReturnStmt) Span() source.Span { return s.Sp }
func (*ReturnStmt) stmtNode()           {}

type BreakStmt struct{ Sp source.Span }

func (s *BreakStmt) Span() source.Span { return s.Sp }
func (*BreakStmt) stmtNode()           {}

type ContinueStmt struct{ Sp source.Span }

func (s *ContinueStmt) Span() source.Span { return s.Sp }
func (*ContinueStmt) stmtNode()           {}

type EmitStmt struct {
	Event Expr // Ident or MemberExpr naming the event
	Args  []Expr
	Sp    source.Span
}

func (s *EmitStmt) Span() source.Span { return s.Sp }
func (*EmitStmt) stmtNode()           {}

// RevertStmt covers both bare `revert("msg")` and custom-error
// `revert InsufficientBalance(have, want)` forms; Error is nil for the
// former.
type RevertStmt struct {
	Error Expr
	Args  []Expr
	Sp    source.Span
}

func (s *RevertStmt) Span() source.Span { return s.Sp }
func (*RevertStmt) stmtNode()           {}

type RequireStmt struct {
	Cond    Expr
	Message Expr // nil when no message was given
	Sp      source.Span
}

func (s *RequireStmt) Span() source.Span { return s.Sp }
func (*RequireStmt) stmtNode()           {}

type AssertStmt struct {
	Cond Expr
	Sp   source.Span
}

func (s *AssertStmt) Span() source.Span { return s.Sp }
func (*AssertStmt) stmtNode()           {}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

type Ident struct {
	Name string
	Sp   source.Span
}

func (e *Ident) Span() source.Span { return e.Sp }
func (*Ident) exprNode()           {}

// IntLiteral carries the raw, separator-stripped digit text (decimal or
// 0x-prefixed); internal/sema parses it with math/big, which tolerates
// arbitrary precision the way the literal's own type (no fixed width
// until folded into a typed context) requires.
type IntLiteral struct {
	Text string
	Sp   source.Span
}

func (e *IntLiteral) Span() source.Span { return e.Sp }
func (*IntLiteral) exprNode()           {}

type RationalLiteral struct {
	Text string
	Sp   source.Span
}

func (e *RationalLiteral) Span() source.Span { return e.Sp }
func (*RationalLiteral) exprNode()           {}

type StringLiteral struct {
	Value string
	Sp    source.Span
}

func (e *StringLiteral) Span() source.Span { return e.Sp }
func (*StringLiteral) exprNode()           {}

type HexStringLiteral struct {
	Value string // decoded bytes, still as a string
	Sp    source.Span
}

func (e *HexStringLiteral) Span() source.Span { return e.Sp }
func (*HexStringLiteral) exprNode()           {}

type BoolLiteral struct {
	Value bool
	Sp    source.Span
}

func (e *BoolLiteral) Span() source.Span { return e.Sp }
func (*BoolLiteral) exprNode()           {}

// AddressLiteral carries the literal exactly as written; the checksum
// validity check (§4.1, EIP-55) happens in internal/sema, which has
// diagnostics to report through.
type AddressLiteral struct {
	Text string
	Sp   source.Span
}

func (e *AddressLiteral) Span() source.Span { return e.Sp }
func (*AddressLiteral) exprNode()           {}

type TupleExpr struct {
	Elems []Expr
	Sp    source.Span
}

func (e *TupleExpr) Span() source.Span { return e.Sp }
func (*TupleExpr) exprNode()           {}

type UnaryExpr struct {
	Op      string
	X       Expr
	Postfix bool // true for x++ / x--
	Sp      source.Span
}

func (e *UnaryExpr) Span() source.Span { return e.Sp }
func (*UnaryExpr) exprNode()           {}

type BinaryExpr struct {
	Op string
	X  Expr
	Y  Expr
	Sp source.Span
}

func (e *BinaryExpr) Span() source.Span { return e.Sp }
func (*BinaryExpr) exprNode()           {}

type AssignExpr struct {
	Op     string // "=", "+=", "-=", ...
	Target Expr
	Value  Expr
	Sp     source.Span
}

func (e *AssignExpr) Span() source.Span { return e.Sp }
func (*AssignExpr) exprNode()           {}

// CallExpr covers positional and named-argument calls; Names is nil for a
// purely positional call and has len(Args) entries (possibly "") otherwise.
type CallExpr struct {
	Callee Expr
	Args   []Expr
	Names  []string
	Sp     source.Span
}

func (e *CallExpr) Span() source.Span { return e.Sp }
func (*CallExpr) exprNode()           {}

type IndexExpr struct {
	X     Expr
	Index Expr
	Sp    source.Span
}

func (e *IndexExpr) Span() source.Span { return e.Sp }
func (*IndexExpr) exprNode()           {}

type MemberExpr struct {
	X    Expr
	Name string
	Sp   source.Span
}

func (e *MemberExpr) Span() source.Span { return e.Sp }
func (*MemberExpr) exprNode()           {}

type NewExpr struct {
	Type TypeExpr
	Sp   source.Span
}

func (e *NewExpr) Span() source.Span { return e.Sp }
func (*NewExpr) exprNode()           {}

type ConditionalExpr struct {
	Cond Expr
	Then Expr
	Else Expr
	Sp   source.Span
}

func (e *ConditionalExpr) Span() source.Span { return e.Sp }
func (*ConditionalExpr) exprNode()           {}
