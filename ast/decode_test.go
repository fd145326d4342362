package ast

import (
	"errors"
	"ownsim/types"
	"testing"
)

func mustDecode(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := Decode([]byte(src))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return prog
}

func singleExpr(t *testing.T, src string) Expr {
	t.Helper()
	prog := mustDecode(t, src)
	if len(prog.Body) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Body))
	}
	es, ok := prog.Body[0].(*ExprStmt)
	if !ok {
		t.Fatalf("expected ExprStmt, got %T", prog.Body[0])
	}
	return es.Expr
}

func TestDecodeLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want types.Value
	}{
		{"- 5", types.NewInt(5)},
		{"- 3000000000", types.NewIntKind(types.I64, 3000000000)},
		{"- !u8 7", types.NewIntKind(types.U8, 7)},
		{"- !usize 42", types.NewIntKind(types.USize, 42)},
		{"- 3.14", types.NewFloat(3.14)},
		{"- true", types.NewBool(true)},
		{"- !char カ", types.NewChar('カ')},
		{`- !text "hi"`, types.NewText("hi")},
		{`- "Eight"`, types.NewStr("Eight")},
		{"- ()", types.Unit},
		{"- ~", types.Unit},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			lit, ok := singleExpr(t, tt.src).(*LiteralExpr)
			if !ok {
				t.Fatalf("expected literal")
			}
			if !lit.Value.Equal(tt.want) {
				t.Errorf("got %s, want %s", lit.Value, tt.want)
			}
			if lit.Value.Type() != tt.want.Type() {
				t.Errorf("got type %s, want %s", lit.Value.Type(), tt.want.Type())
			}
		})
	}
}

func TestDecodeLiteralErrors(t *testing.T) {
	tests := []string{
		"- !u8 300",
		"- !u64 18446744073709551615",
		"- !char ab",
		"- !nope 1",
		"- {frobnicate: 1}",
		"- {let: x}",
		"- {set: x, value: 1, op: '<<='}",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := Decode([]byte(src))
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expected DecodeError, got %v", err)
			}
			if de.Pos.Line != 1 {
				t.Errorf("error position = %s, want line 1", de.Pos)
			}
		})
	}
}

func TestDecodeLetAndShadowing(t *testing.T) {
	prog := mustDecode(t, `
- {let: y, mut: true, value: 7}
- {let: w, type: u8, value: 1}
- {let: [n8, c8, s8], value: tuple}
`)
	if len(prog.Body) != 3 {
		t.Fatalf("got %d statements", len(prog.Body))
	}

	let := prog.Body[0].(*LetStmt)
	bp := let.Pattern.(*BindPattern)
	if bp.Name != "y" || !let.Mutable {
		t.Errorf("let y = %+v", let)
	}
	if let.Pos.Line != 2 {
		t.Errorf("let position = %s", let.Pos)
	}

	if prog.Body[1].(*LetStmt).Type != "u8" {
		t.Errorf("type annotation lost")
	}

	tp, ok := prog.Body[2].(*LetStmt).Pattern.(*TuplePattern)
	if !ok || len(tp.Elements) != 3 {
		t.Fatalf("destructuring let = %#v", prog.Body[2])
	}
}

func TestDecodeReferences(t *testing.T) {
	ref := singleExpr(t, "- {ref: array, range: [2, 4]}").(*RefExpr)
	if ref.Exclusive || !ref.Slice || ref.Lo == nil || ref.Hi == nil {
		t.Errorf("slice ref = %+v", ref)
	}
	if ref.Place.(*IdentExpr).Name != "array" {
		t.Errorf("place = %#v", ref.Place)
	}

	whole := singleExpr(t, "- {ref: array, range: [~, 2]}").(*RefExpr)
	if !whole.Slice || whole.Lo != nil || whole.Hi == nil {
		t.Errorf("open slice ref = %+v", whole)
	}

	mut := singleExpr(t, "- {mut: i}").(*RefExpr)
	if !mut.Exclusive || mut.Slice {
		t.Errorf("mut ref = %+v", mut)
	}

	prog := mustDecode(t, "- {set: {deref: i}, value: 100}")
	as := prog.Body[0].(*AssignStmt)
	if _, ok := as.Target.(*DerefExpr); !ok || as.Operator != "=" {
		t.Errorf("assign = %+v", as)
	}
}

func TestDecodeControlFlow(t *testing.T) {
	prog := mustDecode(t, `
- {let: five, value: {loop: [{break: 5}]}}
- {let: unit, value: {loop: [break]}}
- {while: {op: "<", left: i, right: 10}, do: [{set: i, op: "+=", value: 1}]}
- {for: elem, in: array, do: [{call: print, args: [elem]}], label: outer}
- {if: b, then: [1], else_if: [{if: c, then: [2]}], else: [3]}
`)
	loop := prog.Body[0].(*LetStmt).Value.(*LoopExpr)
	br := loop.Body[0].(*BreakStmt)
	if lit := br.Value.(*LiteralExpr); !lit.Value.Equal(types.NewInt(5)) {
		t.Errorf("break value = %s", lit.Value)
	}

	bare := prog.Body[1].(*LetStmt).Value.(*LoopExpr).Body[0].(*BreakStmt)
	if bare.Value != nil {
		t.Errorf("bare break should carry no value")
	}

	ws := prog.Body[2].(*WhileStmt)
	if ws.Condition.(*BinaryExpr).Operator != "<" || ws.Body[0].(*AssignStmt).Operator != "+=" {
		t.Errorf("while = %+v", ws)
	}

	fs := prog.Body[3].(*ForStmt)
	if fs.Var != "elem" || fs.Label != "outer" {
		t.Errorf("for = %+v", fs)
	}

	ie := prog.Body[4].(*ExprStmt).Expr.(*IfExpr)
	if len(ie.ElseIfs) != 1 || len(ie.Else) != 1 {
		t.Errorf("if = %+v", ie)
	}
}

func TestDecodeMatch(t *testing.T) {
	prog := mustDecode(t, `
- match: en
  arms:
    - {pattern: Enum::Variant1, body: [{call: println, args: ["Variant 1!"]}]}
    - {pattern: {variant: "Enum::Variant2", of: value}, body: value}
    - {pattern: {some: {ref: x}}, body: x}
    - {pattern: None, body: 0}
    - {pattern: _, body: ()}
`)
	me := prog.Body[0].(*ExprStmt).Expr.(*MatchExpr)
	if len(me.Arms) != 5 {
		t.Fatalf("got %d arms", len(me.Arms))
	}

	v1 := me.Arms[0].Pattern.(*VariantPattern)
	if v1.Enum != "Enum" || v1.Variant != "Variant1" || v1.Payload != nil {
		t.Errorf("arm 0 = %+v", v1)
	}
	v2 := me.Arms[1].Pattern.(*VariantPattern)
	if v2.Payload.(*BindPattern).Name != "value" {
		t.Errorf("arm 1 payload = %#v", v2.Payload)
	}
	some := me.Arms[2].Pattern.(*VariantPattern)
	if some.Variant != "Some" || !some.Payload.(*BindPattern).ByRef {
		t.Errorf("arm 2 = %+v", some)
	}
	if me.Arms[3].Pattern.(*VariantPattern).Variant != "None" {
		t.Errorf("arm 3 should match None")
	}
	if _, ok := me.Arms[4].Pattern.(*WildcardPattern); !ok {
		t.Errorf("arm 4 should be a wildcard")
	}
}

func TestDecodeDeclarations(t *testing.T) {
	prog := mustDecode(t, `
- def_struct: Struct
  fields: {x: i32, y: bool}
- def_enum: Enum
  variants: [Variant1, {name: Variant2, payload: String}]
- fn: mutable_borrow
  params: [{name: i, mode: mut}]
  body: [{set: {deref: i}, value: 100}]
- fn: take
  params: [s]
  body: [{call: println, args: ["{}", s]}]
`)
	sd := prog.Body[0].(*StructDecl)
	if sd.Name != "Struct" || len(sd.Fields) != 2 || sd.Fields[1] != "y" {
		t.Errorf("struct = %+v", sd)
	}

	ed := prog.Body[1].(*EnumDecl)
	if len(ed.Variants) != 2 || ed.Variants[1].Payload != "String" {
		t.Errorf("enum = %+v", ed)
	}

	fn := prog.Body[2].(*FnDecl)
	if fn.Params[0].Mode != ByMut {
		t.Errorf("param mode = %s", fn.Params[0].Mode)
	}
	if prog.Body[3].(*FnDecl).Params[0].Mode != ByValue {
		t.Errorf("bare param should be by value")
	}
}

func TestDecodeAliases(t *testing.T) {
	prog := mustDecode(t, `
- {let: a, value: &greeting {call: to_text, args: ["hi"]}}
- {let: b, value: *greeting}
`)
	b := prog.Body[1].(*LetStmt).Value.(*CallExpr)
	if b.Name != "to_text" {
		t.Errorf("alias not followed: %#v", b)
	}
}

func TestDecodeEmpty(t *testing.T) {
	prog := mustDecode(t, "")
	if len(prog.Body) != 0 {
		t.Errorf("empty source should decode to an empty program")
	}
}
