package ast

import (
	"errors"
	"fmt"
	"math"
	"ownsim/types"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DecodeError reports a malformed program node
type DecodeError struct {
	Pos     Position
	Message string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error at %s: %s", e.Pos, e.Message)
}

// Decode parses a YAML program: a sequence of statements
func Decode(data []byte) (*Program, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse program: %w", err)
	}
	return DecodeNode(&root)
}

// DecodeNode converts an already-parsed YAML node into a program
func DecodeNode(n *yaml.Node) (*Program, error) {
	if n == nil || n.Kind == 0 {
		return &Program{}, nil
	}
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return &Program{}, nil
		}
		n = n.Content[0]
	}
	d := &decoder{}
	body, err := d.block(n)
	if err != nil {
		return nil, err
	}
	return &Program{Body: body}, nil
}

type decoder struct{}

func pos(n *yaml.Node) Position {
	return Position{Line: n.Line, Column: n.Column}
}

func (d *decoder) errorf(n *yaml.Node, format string, args ...interface{}) error {
	return &DecodeError{Pos: pos(n), Message: fmt.Sprintf(format, args...)}
}

// deref follows YAML aliases
func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}

func isQuoted(n *yaml.Node) bool {
	return n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0
}

// fields collects the keys of a mapping node
func (d *decoder) fields(n *yaml.Node) (map[string]*yaml.Node, error) {
	m := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := deref(n.Content[i])
		if key.Kind != yaml.ScalarNode {
			return nil, d.errorf(key, "mapping keys must be scalars")
		}
		if _, dup := m[key.Value]; dup {
			return nil, d.errorf(key, "duplicate key %q", key.Value)
		}
		m[key.Value] = deref(n.Content[i+1])
	}
	return m, nil
}

func (d *decoder) name(n *yaml.Node, what string) (string, error) {
	if n == nil || n.Kind != yaml.ScalarNode || n.Value == "" {
		if n == nil {
			return "", &DecodeError{Message: what + " is required"}
		}
		return "", d.errorf(n, "%s must be a name", what)
	}
	return n.Value, nil
}

func (d *decoder) boolField(m map[string]*yaml.Node, key string) (bool, error) {
	n, ok := m[key]
	if !ok {
		return false, nil
	}
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!bool" {
		return false, d.errorf(n, "%s must be true or false", key)
	}
	return n.Value == "true", nil
}

func (d *decoder) optionalName(m map[string]*yaml.Node, key string) (string, error) {
	n, ok := m[key]
	if !ok || isNull(n) {
		return "", nil
	}
	return d.name(n, key)
}

// block decodes a statement list; a single node is a one-statement block
func (d *decoder) block(n *yaml.Node) ([]Stmt, error) {
	n = deref(n)
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		s, err := d.stmt(n)
		if err != nil {
			return nil, err
		}
		return []Stmt{s}, nil
	}
	body := make([]Stmt, 0, len(n.Content))
	for _, c := range n.Content {
		s, err := d.stmt(deref(c))
		if err != nil {
			return nil, err
		}
		body = append(body, s)
	}
	return body, nil
}

// ============================================================================
// Statements
// ============================================================================

func (d *decoder) stmt(n *yaml.Node) (Stmt, error) {
	p := pos(n)
	if n.Kind == yaml.ScalarNode && !isQuoted(n) {
		switch n.Value {
		case "break":
			return &BreakStmt{Pos: p}, nil
		case "continue":
			return &ContinueStmt{Pos: p}, nil
		case "return":
			return &ReturnStmt{Pos: p}, nil
		}
	}
	if n.Kind != yaml.MappingNode {
		e, err := d.expr(n)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{Pos: p, Expr: e}, nil
	}

	m, err := d.fields(n)
	if err != nil {
		return nil, err
	}

	switch {
	case m["let"] != nil:
		return d.letStmt(n, m)

	case m["set"] != nil:
		target, err := d.expr(m["set"])
		if err != nil {
			return nil, err
		}
		value, err := d.required(n, m, "value")
		if err != nil {
			return nil, err
		}
		op := "="
		if o, ok := m["op"]; ok {
			op = o.Value
		}
		switch op {
		case "=", "+=", "-=", "*=", "/=", "%=":
		default:
			return nil, d.errorf(m["op"], "unknown assignment operator %q", op)
		}
		return &AssignStmt{Pos: p, Target: target, Operator: op, Value: value}, nil

	case m["while"] != nil:
		cond, err := d.expr(m["while"])
		if err != nil {
			return nil, err
		}
		body, err := d.block(m["do"])
		if err != nil {
			return nil, err
		}
		label, err := d.optionalName(m, "label")
		if err != nil {
			return nil, err
		}
		return &WhileStmt{Pos: p, Label: label, Condition: cond, Body: body}, nil

	case m["for"] != nil:
		v, err := d.name(m["for"], "loop variable")
		if err != nil {
			return nil, err
		}
		iter, err := d.required(n, m, "in")
		if err != nil {
			return nil, err
		}
		body, err := d.block(m["do"])
		if err != nil {
			return nil, err
		}
		label, err := d.optionalName(m, "label")
		if err != nil {
			return nil, err
		}
		return &ForStmt{Pos: p, Label: label, Var: v, Iter: iter, Body: body}, nil

	case hasKey(m, "break"):
		label, err := d.optionalName(m, "label")
		if err != nil {
			return nil, err
		}
		s := &BreakStmt{Pos: p, Label: label}
		if !isNull(m["break"]) {
			if s.Value, err = d.expr(m["break"]); err != nil {
				return nil, err
			}
		}
		return s, nil

	case hasKey(m, "continue"):
		label := ""
		if !isNull(m["continue"]) {
			if label, err = d.name(m["continue"], "label"); err != nil {
				return nil, err
			}
		}
		return &ContinueStmt{Pos: p, Label: label}, nil

	case hasKey(m, "return"):
		s := &ReturnStmt{Pos: p}
		if !isNull(m["return"]) {
			if s.Value, err = d.expr(m["return"]); err != nil {
				return nil, err
			}
		}
		return s, nil

	case m["fn"] != nil:
		return d.fnDecl(n, m)

	case m["def_struct"] != nil:
		name, err := d.name(m["def_struct"], "struct name")
		if err != nil {
			return nil, err
		}
		fields, err := d.names(m["fields"])
		if err != nil {
			return nil, err
		}
		decl := &StructDecl{Pos: p, Name: name, Fields: fields}
		if f := m["fields"]; f != nil && f.Kind == yaml.MappingNode {
			for i := 1; i < len(f.Content); i += 2 {
				decl.FieldTypes = append(decl.FieldTypes, f.Content[i].Value)
			}
		}
		return decl, nil

	case m["def_enum"] != nil:
		return d.enumDecl(n, m)
	}

	e, err := d.exprMap(n, m)
	if err != nil {
		return nil, err
	}
	return &ExprStmt{Pos: p, Expr: e}, nil
}

func hasKey(m map[string]*yaml.Node, key string) bool {
	_, ok := m[key]
	return ok
}

func (d *decoder) letStmt(n *yaml.Node, m map[string]*yaml.Node) (Stmt, error) {
	pat, err := d.pattern(m["let"])
	if err != nil {
		return nil, err
	}
	switch pat.(type) {
	case *BindPattern, *TuplePattern, *WildcardPattern:
	default:
		return nil, d.errorf(m["let"], "let needs a name or tuple pattern")
	}
	mutable, err := d.boolField(m, "mut")
	if err != nil {
		return nil, err
	}
	typ, err := d.optionalName(m, "type")
	if err != nil {
		return nil, err
	}
	value, err := d.required(n, m, "value")
	if err != nil {
		return nil, err
	}
	return &LetStmt{Pos: pos(n), Pattern: pat, Mutable: mutable, Type: typ, Value: value}, nil
}

func (d *decoder) fnDecl(n *yaml.Node, m map[string]*yaml.Node) (Stmt, error) {
	name, err := d.name(m["fn"], "function name")
	if err != nil {
		return nil, err
	}
	fn := &FnDecl{Pos: pos(n), Name: name}

	if params := m["params"]; !isNull(params) {
		if params.Kind != yaml.SequenceNode {
			return nil, d.errorf(params, "params must be a list")
		}
		for _, c := range params.Content {
			param, err := d.param(deref(c))
			if err != nil {
				return nil, err
			}
			fn.Params = append(fn.Params, param)
		}
	}

	if fn.Body, err = d.block(m["body"]); err != nil {
		return nil, err
	}
	return fn, nil
}

func (d *decoder) param(n *yaml.Node) (Param, error) {
	if n.Kind == yaml.ScalarNode {
		return Param{Name: n.Value, Mode: ByValue}, nil
	}
	if n.Kind != yaml.MappingNode {
		return Param{}, d.errorf(n, "param must be a name or {name, mode}")
	}
	m, err := d.fields(n)
	if err != nil {
		return Param{}, err
	}
	name, err := d.name(m["name"], "param name")
	if err != nil {
		return Param{}, err
	}
	mutable, err := d.boolField(m, "mut")
	if err != nil {
		return Param{}, err
	}
	p := Param{Name: name, Mutable: mutable}
	if mode, ok := m["mode"]; ok {
		switch mode.Value {
		case "value", "":
			p.Mode = ByValue
		case "ref", "&":
			p.Mode = ByRef
		case "mut", "&mut":
			p.Mode = ByMut
		default:
			return Param{}, d.errorf(mode, "unknown param mode %q", mode.Value)
		}
	}
	return p, nil
}

// names decodes a list of names, or the keys of a mapping in order
func (d *decoder) names(n *yaml.Node) ([]string, error) {
	if isNull(n) {
		return nil, nil
	}
	var out []string
	switch n.Kind {
	case yaml.SequenceNode:
		for _, c := range n.Content {
			name, err := d.name(deref(c), "field")
			if err != nil {
				return nil, err
			}
			out = append(out, name)
		}
	case yaml.MappingNode:
		for i := 0; i < len(n.Content); i += 2 {
			out = append(out, n.Content[i].Value)
		}
	default:
		return nil, d.errorf(n, "expected a list of names")
	}
	return out, nil
}

func (d *decoder) enumDecl(n *yaml.Node, m map[string]*yaml.Node) (Stmt, error) {
	name, err := d.name(m["def_enum"], "enum name")
	if err != nil {
		return nil, err
	}
	decl := &EnumDecl{Pos: pos(n), Name: name}
	variants := m["variants"]
	if variants == nil || variants.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "enum %s needs a variants list", name)
	}
	for _, c := range variants.Content {
		c = deref(c)
		switch c.Kind {
		case yaml.ScalarNode:
			decl.Variants = append(decl.Variants, VariantDecl{Name: c.Value})
		case yaml.MappingNode:
			vm, err := d.fields(c)
			if err != nil {
				return nil, err
			}
			vname, err := d.name(vm["name"], "variant name")
			if err != nil {
				return nil, err
			}
			payload, err := d.optionalName(vm, "payload")
			if err != nil {
				return nil, err
			}
			decl.Variants = append(decl.Variants, VariantDecl{Name: vname, Payload: payload})
		default:
			return nil, d.errorf(c, "variant must be a name or {name, payload}")
		}
	}
	return decl, nil
}

// ============================================================================
// Expressions
// ============================================================================

func (d *decoder) required(n *yaml.Node, m map[string]*yaml.Node, key string) (Expr, error) {
	c, ok := m[key]
	if !ok {
		return nil, d.errorf(n, "missing %q", key)
	}
	return d.expr(c)
}

func (d *decoder) optional(m map[string]*yaml.Node, key string) (Expr, error) {
	c, ok := m[key]
	if !ok || isNull(c) {
		return nil, nil
	}
	return d.expr(c)
}

func (d *decoder) exprs(n *yaml.Node) ([]Expr, error) {
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "expected a list")
	}
	out := make([]Expr, 0, len(n.Content))
	for _, c := range n.Content {
		e, err := d.expr(c)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// pair decodes a two-element list [lo, hi]
func (d *decoder) pair(n *yaml.Node) (Expr, Expr, error) {
	if n.Kind != yaml.SequenceNode || len(n.Content) != 2 {
		return nil, nil, d.errorf(n, "expected [start, end]")
	}
	lo, err := d.expr(n.Content[0])
	if err != nil {
		return nil, nil, err
	}
	hi, err := d.expr(n.Content[1])
	if err != nil {
		return nil, nil, err
	}
	return lo, hi, nil
}

// bounds decodes slice bounds [lo, hi]; a null bound is open
func (d *decoder) bounds(n *yaml.Node) (Expr, Expr, error) {
	if n.Kind != yaml.SequenceNode || len(n.Content) != 2 {
		return nil, nil, d.errorf(n, "expected [start, end]")
	}
	var out [2]Expr
	for i, c := range n.Content {
		if isNull(deref(c)) {
			continue
		}
		e, err := d.expr(c)
		if err != nil {
			return nil, nil, err
		}
		out[i] = e
	}
	return out[0], out[1], nil
}

func (d *decoder) expr(n *yaml.Node) (Expr, error) {
	n = deref(n)
	if n == nil {
		return nil, &DecodeError{Message: "missing expression"}
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return d.scalar(n)
	case yaml.SequenceNode:
		elements, err := d.exprs(n)
		if err != nil {
			return nil, err
		}
		return &ArrayExpr{Pos: pos(n), Elements: elements}, nil
	case yaml.MappingNode:
		m, err := d.fields(n)
		if err != nil {
			return nil, err
		}
		return d.exprMap(n, m)
	}
	return nil, d.errorf(n, "unexpected node")
}

func (d *decoder) scalar(n *yaml.Node) (Expr, error) {
	p := pos(n)
	if strings.HasPrefix(n.Tag, "!") && !strings.HasPrefix(n.Tag, "!!") {
		v, err := d.tagged(n)
		if err != nil {
			return nil, err
		}
		return &LiteralExpr{Pos: p, Value: v}, nil
	}

	switch n.ShortTag() {
	case "!!int", "!!float", "!!bool", "!!null":
		v, err := d.plain(n)
		if err != nil {
			return nil, err
		}
		return &LiteralExpr{Pos: p, Value: v}, nil
	}

	if isQuoted(n) {
		return &LiteralExpr{Pos: p, Value: types.NewStr(n.Value)}, nil
	}
	switch {
	case n.Value == "()":
		return &LiteralExpr{Pos: p, Value: types.Unit}, nil
	case n.Value == "None" || n.Value == "none":
		return &VariantExpr{Pos: p, Variant: "None"}, nil
	case strings.Contains(n.Value, "::"):
		enum, variant := splitPath(n.Value)
		return &VariantExpr{Pos: p, Enum: enum, Variant: variant}, nil
	}
	return &IdentExpr{Pos: p, Name: n.Value}, nil
}

// plain decodes an untagged int, float, bool or null scalar
func (d *decoder) plain(n *yaml.Node) (types.Value, error) {
	switch n.ShortTag() {
	case "!!int":
		i, err := strconv.ParseInt(strings.ReplaceAll(n.Value, "_", ""), 0, 64)
		if err != nil {
			return nil, d.errorf(n, "bad integer %q", n.Value)
		}
		if !types.I32.Fits(i) {
			return types.NewIntKind(types.I64, i), nil
		}
		return types.NewInt(i), nil
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, d.errorf(n, "bad float %q", n.Value)
		}
		return types.NewFloat(f), nil
	case "!!bool":
		return types.NewBool(n.Value == "true"), nil
	case "!!null":
		return types.Unit, nil
	}
	return nil, d.errorf(n, "not a literal: %q", n.Value)
}

// tagged decodes a literal with an explicit type tag such as !u8 or !text
func (d *decoder) tagged(n *yaml.Node) (types.Value, error) {
	tag := strings.TrimPrefix(n.Tag, "!")
	switch tag {
	case "text":
		return types.NewText(n.Value), nil
	case "str":
		return types.NewStr(n.Value), nil
	case "char":
		r := []rune(n.Value)
		if len(r) != 1 {
			return nil, d.errorf(n, "char literal must be one character, got %q", n.Value)
		}
		return types.NewChar(r[0]), nil
	case "f32", "f64":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, d.errorf(n, "bad float %q", n.Value)
		}
		if tag == "f32" {
			return types.NewFloatKind(types.F32, float64(float32(f))), nil
		}
		return types.NewFloat(f), nil
	}

	kind, ok := types.IntKindFromString(tag)
	if !ok {
		return nil, d.errorf(n, "unknown literal tag !%s", tag)
	}
	i, err := strconv.ParseInt(strings.ReplaceAll(n.Value, "_", ""), 0, 64)
	if errors.Is(err, strconv.ErrRange) && !kind.Signed() {
		return nil, d.errorf(n, "literal %s out of range for %s (maximum %d)", n.Value, kind, int64(math.MaxInt64))
	}
	if err != nil {
		return nil, d.errorf(n, "bad integer %q", n.Value)
	}
	if !kind.Fits(i) {
		return nil, d.errorf(n, "literal %s out of range for %s", n.Value, kind)
	}
	return types.NewIntKind(kind, i), nil
}

func splitPath(s string) (string, string) {
	if i := strings.LastIndex(s, "::"); i >= 0 {
		return s[:i], s[i+2:]
	}
	return "", s
}

func (d *decoder) exprMap(n *yaml.Node, m map[string]*yaml.Node) (Expr, error) {
	p := pos(n)

	switch {
	case m["ref"] != nil || m["mut"] != nil:
		key := "ref"
		if m["ref"] == nil {
			key = "mut"
		}
		place, err := d.expr(m[key])
		if err != nil {
			return nil, err
		}
		e := &RefExpr{Pos: p, Place: place, Exclusive: key == "mut"}
		if r, ok := m["range"]; ok {
			if e.Lo, e.Hi, err = d.bounds(r); err != nil {
				return nil, err
			}
			e.Slice = true
		}
		return e, nil

	case m["deref"] != nil:
		inner, err := d.expr(m["deref"])
		if err != nil {
			return nil, err
		}
		return &DerefExpr{Pos: p, Expr: inner}, nil

	case hasKey(m, "tuple"):
		elements, err := d.exprs(m["tuple"])
		if err != nil {
			return nil, err
		}
		return &TupleExpr{Pos: p, Elements: elements}, nil

	case hasKey(m, "array"):
		elements, err := d.exprs(m["array"])
		if err != nil {
			return nil, err
		}
		return &ArrayExpr{Pos: p, Elements: elements}, nil

	case m["repeat"] != nil:
		value, err := d.expr(m["repeat"])
		if err != nil {
			return nil, err
		}
		count, err := d.required(n, m, "count")
		if err != nil {
			return nil, err
		}
		return &RepeatExpr{Pos: p, Value: value, Count: count}, nil

	case m["range"] != nil:
		lo, hi, err := d.pair(m["range"])
		if err != nil {
			return nil, err
		}
		return &RangeExpr{Pos: p, Start: lo, End: hi}, nil

	case m["call"] != nil:
		name, err := d.name(m["call"], "function name")
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(m["args"])
		if err != nil {
			return nil, err
		}
		return &CallExpr{Pos: p, Name: name, Args: args}, nil

	case m["op"] != nil:
		left, err := d.required(n, m, "left")
		if err != nil {
			return nil, err
		}
		right, err := d.required(n, m, "right")
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Pos: p, Left: left, Operator: m["op"].Value, Right: right}, nil

	case m["not"] != nil || m["neg"] != nil:
		op, key := "!", "not"
		if m["not"] == nil {
			op, key = "-", "neg"
		}
		operand, err := d.expr(m[key])
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Pos: p, Operator: op, Operand: operand}, nil

	case m["index"] != nil:
		inner, err := d.expr(m["index"])
		if err != nil {
			return nil, err
		}
		at, err := d.required(n, m, "at")
		if err != nil {
			return nil, err
		}
		return &IndexExpr{Pos: p, Expr: inner, Index: at}, nil

	case m["field"] != nil:
		inner, err := d.expr(m["field"])
		if err != nil {
			return nil, err
		}
		e := &FieldExpr{Pos: p, Expr: inner, Index: -1}
		if at, ok := m["at"]; ok {
			i, err := strconv.Atoi(at.Value)
			if err != nil || i < 0 {
				return nil, d.errorf(at, "tuple position must be a non-negative integer")
			}
			e.Index = i
		} else if e.Name, err = d.name(m["name"], "field name"); err != nil {
			return nil, err
		}
		return e, nil

	case m["struct"] != nil:
		name, err := d.name(m["struct"], "struct name")
		if err != nil {
			return nil, err
		}
		e := &StructExpr{Pos: p, Name: name}
		if f := m["fields"]; !isNull(f) {
			if f.Kind != yaml.MappingNode {
				return nil, d.errorf(f, "struct fields must be a mapping")
			}
			for i := 0; i+1 < len(f.Content); i += 2 {
				value, err := d.expr(f.Content[i+1])
				if err != nil {
					return nil, err
				}
				e.Fields = append(e.Fields, FieldInit{Name: f.Content[i].Value, Value: value})
			}
		}
		return e, nil

	case m["variant"] != nil:
		path, err := d.name(m["variant"], "variant")
		if err != nil {
			return nil, err
		}
		enum, variant := splitPath(path)
		payload, err := d.optional(m, "payload")
		if err != nil {
			return nil, err
		}
		return &VariantExpr{Pos: p, Enum: enum, Variant: variant, Payload: payload}, nil

	case hasKey(m, "some") || hasKey(m, "ok") || hasKey(m, "err"):
		variant, key := "Some", "some"
		if hasKey(m, "ok") {
			variant, key = "Ok", "ok"
		} else if hasKey(m, "err") {
			variant, key = "Err", "err"
		}
		payload, err := d.expr(m[key])
		if err != nil {
			return nil, err
		}
		return &VariantExpr{Pos: p, Variant: variant, Payload: payload}, nil

	case m["if"] != nil:
		return d.ifExpr(n, m)

	case m["if_let"] != nil:
		pat, err := d.pattern(m["if_let"])
		if err != nil {
			return nil, err
		}
		value, err := d.required(n, m, "value")
		if err != nil {
			return nil, err
		}
		body, err := d.block(m["then"])
		if err != nil {
			return nil, err
		}
		e := &IfLetExpr{Pos: p, Pattern: pat, Value: value, Body: body}
		if el, ok := m["else"]; ok {
			if e.Else, err = d.block(el); err != nil {
				return nil, err
			}
			if e.Else == nil {
				e.Else = []Stmt{}
			}
		}
		return e, nil

	case hasKey(m, "loop"):
		body, err := d.block(m["loop"])
		if err != nil {
			return nil, err
		}
		label, err := d.optionalName(m, "label")
		if err != nil {
			return nil, err
		}
		return &LoopExpr{Pos: p, Label: label, Body: body}, nil

	case m["match"] != nil:
		return d.matchExpr(n, m)

	case hasKey(m, "block"):
		body, err := d.block(m["block"])
		if err != nil {
			return nil, err
		}
		return &BlockExpr{Pos: p, Body: body}, nil
	}

	return nil, d.errorf(n, "unknown instruction %s", keyList(n))
}

func keyList(n *yaml.Node) string {
	var keys []string
	for i := 0; i < len(n.Content); i += 2 {
		keys = append(keys, n.Content[i].Value)
	}
	return "{" + strings.Join(keys, ", ") + "}"
}

func (d *decoder) ifExpr(n *yaml.Node, m map[string]*yaml.Node) (Expr, error) {
	cond, err := d.expr(m["if"])
	if err != nil {
		return nil, err
	}
	body, err := d.block(m["then"])
	if err != nil {
		return nil, err
	}
	e := &IfExpr{Pos: pos(n), Condition: cond, Body: body}

	if elifs := m["else_if"]; !isNull(elifs) {
		if elifs.Kind != yaml.SequenceNode {
			return nil, d.errorf(elifs, "else_if must be a list")
		}
		for _, c := range elifs.Content {
			c = deref(c)
			if c.Kind != yaml.MappingNode {
				return nil, d.errorf(c, "else_if clause must be {if, then}")
			}
			cm, err := d.fields(c)
			if err != nil {
				return nil, err
			}
			ccond, err := d.required(c, cm, "if")
			if err != nil {
				return nil, err
			}
			cbody, err := d.block(cm["then"])
			if err != nil {
				return nil, err
			}
			e.ElseIfs = append(e.ElseIfs, ElseIfClause{Pos: pos(c), Condition: ccond, Body: cbody})
		}
	}

	if el, ok := m["else"]; ok {
		if e.Else, err = d.block(el); err != nil {
			return nil, err
		}
		if e.Else == nil {
			e.Else = []Stmt{}
		}
	}
	return e, nil
}

func (d *decoder) matchExpr(n *yaml.Node, m map[string]*yaml.Node) (Expr, error) {
	scrutinee, err := d.expr(m["match"])
	if err != nil {
		return nil, err
	}
	arms := m["arms"]
	if arms == nil || arms.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "match needs an arms list")
	}
	e := &MatchExpr{Pos: pos(n), Scrutinee: scrutinee}
	for _, c := range arms.Content {
		c = deref(c)
		if c.Kind != yaml.MappingNode {
			return nil, d.errorf(c, "arm must be {pattern, body}")
		}
		am, err := d.fields(c)
		if err != nil {
			return nil, err
		}
		pn, ok := am["pattern"]
		if !ok {
			return nil, d.errorf(c, "arm is missing a pattern")
		}
		pat, err := d.pattern(pn)
		if err != nil {
			return nil, err
		}
		body, err := d.block(am["body"])
		if err != nil {
			return nil, err
		}
		e.Arms = append(e.Arms, MatchArm{Pos: pos(c), Pattern: pat, Body: body})
	}
	return e, nil
}

// ============================================================================
// Patterns
// ============================================================================

func (d *decoder) pattern(n *yaml.Node) (Pattern, error) {
	n = deref(n)
	if n == nil {
		return nil, &DecodeError{Message: "missing pattern"}
	}
	p := pos(n)

	switch n.Kind {
	case yaml.ScalarNode:
		if strings.HasPrefix(n.Tag, "!") && !strings.HasPrefix(n.Tag, "!!") {
			v, err := d.tagged(n)
			if err != nil {
				return nil, err
			}
			return &LiteralPattern{Pos: p, Value: v}, nil
		}
		switch n.ShortTag() {
		case "!!int", "!!float", "!!bool", "!!null":
			v, err := d.plain(n)
			if err != nil {
				return nil, err
			}
			return &LiteralPattern{Pos: p, Value: v}, nil
		}
		if isQuoted(n) {
			return &LiteralPattern{Pos: p, Value: types.NewStr(n.Value)}, nil
		}
		switch {
		case n.Value == "_":
			return &WildcardPattern{Pos: p}, nil
		case n.Value == "()":
			return &LiteralPattern{Pos: p, Value: types.Unit}, nil
		case n.Value == "None" || n.Value == "none":
			return &VariantPattern{Pos: p, Variant: "None"}, nil
		case strings.Contains(n.Value, "::"):
			enum, variant := splitPath(n.Value)
			return &VariantPattern{Pos: p, Enum: enum, Variant: variant}, nil
		}
		return &BindPattern{Pos: p, Name: n.Value}, nil

	case yaml.SequenceNode:
		return d.tuplePattern(n, n)

	case yaml.MappingNode:
		m, err := d.fields(n)
		if err != nil {
			return nil, err
		}
		switch {
		case m["ref"] != nil:
			name, err := d.name(m["ref"], "binding")
			if err != nil {
				return nil, err
			}
			return &BindPattern{Pos: p, Name: name, ByRef: true}, nil
		case m["mut"] != nil:
			name, err := d.name(m["mut"], "binding")
			if err != nil {
				return nil, err
			}
			return &BindPattern{Pos: p, Name: name, Mutable: true}, nil
		case m["tuple"] != nil:
			return d.tuplePattern(n, m["tuple"])
		case m["variant"] != nil:
			path, err := d.name(m["variant"], "variant")
			if err != nil {
				return nil, err
			}
			enum, variant := splitPath(path)
			vp := &VariantPattern{Pos: p, Enum: enum, Variant: variant}
			if of, ok := m["of"]; ok {
				if vp.Payload, err = d.pattern(of); err != nil {
					return nil, err
				}
			}
			return vp, nil
		case hasKey(m, "some") || hasKey(m, "ok") || hasKey(m, "err"):
			variant, key := "Some", "some"
			if hasKey(m, "ok") {
				variant, key = "Ok", "ok"
			} else if hasKey(m, "err") {
				variant, key = "Err", "err"
			}
			payload, err := d.pattern(m[key])
			if err != nil {
				return nil, err
			}
			return &VariantPattern{Pos: p, Variant: variant, Payload: payload}, nil
		}
		return nil, d.errorf(n, "unknown pattern %s", keyList(n))
	}
	return nil, d.errorf(n, "unexpected pattern node")
}

func (d *decoder) tuplePattern(at, n *yaml.Node) (Pattern, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "tuple pattern must be a list")
	}
	tp := &TuplePattern{Pos: pos(at)}
	for _, c := range n.Content {
		el, err := d.pattern(c)
		if err != nil {
			return nil, err
		}
		tp.Elements = append(tp.Elements, el)
	}
	return tp, nil
}
