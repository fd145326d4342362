package ast

import (
	"fmt"
	"ownsim/types"
)

// Position is a location in the program source
type Position struct {
	Line   int
	Column int
}

// String returns line:column
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is the base interface for all AST nodes
type Node interface {
	Position() Position
}

// Expr represents an expression node
type Expr interface {
	Node
	exprNode()
}

// Stmt represents a statement node
type Stmt interface {
	Node
	stmtNode()
}

// Pattern represents a match/let pattern
type Pattern interface {
	Node
	patternNode()
}

// Program is a decoded instruction sequence
type Program struct {
	Body []Stmt
}

// ============================================================================
// Expressions
// ============================================================================

// LiteralExpr wraps a constant value
type LiteralExpr struct {
	Pos   Position
	Value types.Value
}

func (e *LiteralExpr) Position() Position { return e.Pos }
func (e *LiteralExpr) exprNode()          {}

// IdentExpr is a name reference
type IdentExpr struct {
	Pos  Position
	Name string
}

func (e *IdentExpr) Position() Position { return e.Pos }
func (e *IdentExpr) exprNode()          {}

// TupleExpr constructs a tuple: (a, b, c)
type TupleExpr struct {
	Pos      Position
	Elements []Expr
}

func (e *TupleExpr) Position() Position { return e.Pos }
func (e *TupleExpr) exprNode()          {}

// ArrayExpr constructs an array: [a, b, c]
type ArrayExpr struct {
	Pos      Position
	Elements []Expr
}

func (e *ArrayExpr) Position() Position { return e.Pos }
func (e *ArrayExpr) exprNode()          {}

// RepeatExpr constructs [value; count]
type RepeatExpr struct {
	Pos   Position
	Value Expr
	Count Expr
}

func (e *RepeatExpr) Position() Position { return e.Pos }
func (e *RepeatExpr) exprNode()          {}

// RangeExpr is the finite half-open sequence start..end
type RangeExpr struct {
	Pos   Position
	Start Expr
	End   Expr
}

func (e *RangeExpr) Position() Position { return e.Pos }
func (e *RangeExpr) exprNode()          {}

// FieldInit is one name: value pair of a struct literal
type FieldInit struct {
	Name  string
	Value Expr
}

// StructExpr constructs a struct: Name { x: 1, y: true }
type StructExpr struct {
	Pos    Position
	Name   string
	Fields []FieldInit
}

func (e *StructExpr) Position() Position { return e.Pos }
func (e *StructExpr) exprNode()          {}

// VariantExpr constructs an enum value: Enum::Variant(payload)
type VariantExpr struct {
	Pos     Position
	Enum    string // "" when the variant name alone is unambiguous (Some, None, Ok, Err)
	Variant string
	Payload Expr // nil for unit variants
}

func (e *VariantExpr) Position() Position { return e.Pos }
func (e *VariantExpr) exprNode()          {}

// UnaryExpr represents a unary operation
type UnaryExpr struct {
	Pos      Position
	Operator string // "!" or "-"
	Operand  Expr
}

func (e *UnaryExpr) Position() Position { return e.Pos }
func (e *UnaryExpr) exprNode()          {}

// BinaryExpr represents a binary operation
type BinaryExpr struct {
	Pos      Position
	Left     Expr
	Operator string
	Right    Expr
}

func (e *BinaryExpr) Position() Position { return e.Pos }
func (e *BinaryExpr) exprNode()          {}

// RefExpr borrows a place: &x, &mut x, or the slice &x[lo..hi]
type RefExpr struct {
	Pos       Position
	Place     Expr
	Exclusive bool
	Slice     bool // &x[lo..hi]; a nil bound is open
	Lo        Expr
	Hi        Expr
}

func (e *RefExpr) Position() Position { return e.Pos }
func (e *RefExpr) exprNode()          {}

// DerefExpr reads through a reference: *r
type DerefExpr struct {
	Pos  Position
	Expr Expr
}

func (e *DerefExpr) Position() Position { return e.Pos }
func (e *DerefExpr) exprNode()          {}

// IndexExpr represents indexing: expr[index]
type IndexExpr struct {
	Pos   Position
	Expr  Expr
	Index Expr
}

func (e *IndexExpr) Position() Position { return e.Pos }
func (e *IndexExpr) exprNode()          {}

// FieldExpr accesses a struct field (expr.name) or tuple position (expr.0)
type FieldExpr struct {
	Pos   Position
	Expr  Expr
	Name  string
	Index int // tuple position; -1 when Name is used
}

func (e *FieldExpr) Position() Position { return e.Pos }
func (e *FieldExpr) exprNode()          {}

// CallExpr calls a declared function or builtin
type CallExpr struct {
	Pos  Position
	Name string
	Args []Expr
}

func (e *CallExpr) Position() Position { return e.Pos }
func (e *CallExpr) exprNode()          {}

// ElseIfClause is one else-if branch
type ElseIfClause struct {
	Pos       Position
	Condition Expr
	Body      []Stmt
}

// IfExpr is if/else-if/else; its value is the value of the taken branch
type IfExpr struct {
	Pos       Position
	Condition Expr
	Body      []Stmt
	ElseIfs   []ElseIfClause
	Else      []Stmt // nil when there is no else
}

func (e *IfExpr) Position() Position { return e.Pos }
func (e *IfExpr) exprNode()          {}

// IfLetExpr runs Body when Value matches Pattern
type IfLetExpr struct {
	Pos     Position
	Pattern Pattern
	Value   Expr
	Body    []Stmt
	Else    []Stmt
}

func (e *IfLetExpr) Position() Position { return e.Pos }
func (e *IfLetExpr) exprNode()          {}

// LoopExpr repeats Body until a break; the break value is the loop's value
type LoopExpr struct {
	Pos   Position
	Label string
	Body  []Stmt
}

func (e *LoopExpr) Position() Position { return e.Pos }
func (e *LoopExpr) exprNode()          {}

// MatchArm is one pattern => body arm
type MatchArm struct {
	Pos     Position
	Pattern Pattern
	Body    []Stmt
}

// MatchExpr selects the first arm whose pattern matches the scrutinee
type MatchExpr struct {
	Pos       Position
	Scrutinee Expr
	Arms      []MatchArm
}

func (e *MatchExpr) Position() Position { return e.Pos }
func (e *MatchExpr) exprNode()          {}

// BlockExpr is a nested scope; its value is its trailing expression
type BlockExpr struct {
	Pos  Position
	Body []Stmt
}

func (e *BlockExpr) Position() Position { return e.Pos }
func (e *BlockExpr) exprNode()          {}

// ============================================================================
// Patterns
// ============================================================================

// WildcardPattern matches anything and binds nothing: _
type WildcardPattern struct {
	Pos Position
}

func (p *WildcardPattern) Position() Position { return p.Pos }
func (p *WildcardPattern) patternNode()       {}

// BindPattern binds the matched value to a name
type BindPattern struct {
	Pos     Position
	Name    string
	ByRef   bool // ref name: bind a shared borrow instead of the value
	Mutable bool
}

func (p *BindPattern) Position() Position { return p.Pos }
func (p *BindPattern) patternNode()       {}

// LiteralPattern matches an equal constant
type LiteralPattern struct {
	Pos   Position
	Value types.Value
}

func (p *LiteralPattern) Position() Position { return p.Pos }
func (p *LiteralPattern) patternNode()       {}

// VariantPattern matches an enum variant and optionally its payload
type VariantPattern struct {
	Pos     Position
	Enum    string
	Variant string
	Payload Pattern
}

func (p *VariantPattern) Position() Position { return p.Pos }
func (p *VariantPattern) patternNode()       {}

// TuplePattern destructures a tuple element-wise
type TuplePattern struct {
	Pos      Position
	Elements []Pattern
}

func (p *TuplePattern) Position() Position { return p.Pos }
func (p *TuplePattern) patternNode()       {}

// ============================================================================
// Statements
// ============================================================================

// ExprStmt evaluates an expression; a trailing one is the block's value
type ExprStmt struct {
	Pos  Position
	Expr Expr
}

func (s *ExprStmt) Position() Position { return s.Pos }
func (s *ExprStmt) stmtNode()          {}

// LetStmt declares fresh bindings: let [mut] pattern[: type] = value
type LetStmt struct {
	Pos     Position
	Pattern Pattern
	Mutable bool
	Type    string // optional annotation, e.g. "u8"
	Value   Expr
}

func (s *LetStmt) Position() Position { return s.Pos }
func (s *LetStmt) stmtNode()          {}

// AssignStmt replaces the value at a place: target op value
type AssignStmt struct {
	Pos      Position
	Target   Expr
	Operator string // "=", "+=", "-=", "*=", "/=", "%="
	Value    Expr
}

func (s *AssignStmt) Position() Position { return s.Pos }
func (s *AssignStmt) stmtNode()          {}

// WhileStmt re-evaluates Condition before every iteration
type WhileStmt struct {
	Pos       Position
	Label     string
	Condition Expr
	Body      []Stmt
}

func (s *WhileStmt) Position() Position { return s.Pos }
func (s *WhileStmt) stmtNode()          {}

// ForStmt iterates a finite sequence without consuming it
type ForStmt struct {
	Pos   Position
	Label string
	Var   string
	Iter  Expr
	Body  []Stmt
}

func (s *ForStmt) Position() Position { return s.Pos }
func (s *ForStmt) stmtNode()          {}

// BreakStmt exits the innermost (or labeled) loop
type BreakStmt struct {
	Pos   Position
	Label string
	Value Expr // nil means Unit
}

func (s *BreakStmt) Position() Position { return s.Pos }
func (s *BreakStmt) stmtNode()          {}

// ContinueStmt skips to the next iteration
type ContinueStmt struct {
	Pos   Position
	Label string
}

func (s *ContinueStmt) Position() Position { return s.Pos }
func (s *ContinueStmt) stmtNode()          {}

// ReturnStmt returns from the enclosing function
type ReturnStmt struct {
	Pos   Position
	Value Expr // nil means Unit
}

func (s *ReturnStmt) Position() Position { return s.Pos }
func (s *ReturnStmt) stmtNode()          {}

// ParamMode is how an argument is passed
type ParamMode int

const (
	ByValue ParamMode = iota
	ByRef
	ByMut
)

// String returns the parameter mode as written in a signature
func (m ParamMode) String() string {
	switch m {
	case ByRef:
		return "&"
	case ByMut:
		return "&mut"
	default:
		return "value"
	}
}

// Param is one function parameter
type Param struct {
	Name    string
	Mode    ParamMode
	Mutable bool
}

// FnDecl declares a function; declarations are hoisted
type FnDecl struct {
	Pos    Position
	Name   string
	Params []Param
	Body   []Stmt
}

func (s *FnDecl) Position() Position { return s.Pos }
func (s *FnDecl) stmtNode()          {}

// StructDecl declares a struct type with ordered fields
type StructDecl struct {
	Pos        Position
	Name       string
	Fields     []string
	FieldTypes []string // parallel to Fields; nil when the declaration gives no types
}

func (s *StructDecl) Position() Position { return s.Pos }
func (s *StructDecl) stmtNode()          {}

// VariantDecl is one declared enum variant
type VariantDecl struct {
	Name    string
	Payload string // payload type name, "" for unit variants
}

// EnumDecl declares an enum type with a closed variant set
type EnumDecl struct {
	Pos      Position
	Name     string
	Variants []VariantDecl
}

func (s *EnumDecl) Position() Position { return s.Pos }
func (s *EnumDecl) stmtNode()          {}
