package builtins

import (
	"ownsim/types"
	"strings"
)

// ============================================================================
// CONSOLE AND FORMATTING
// ============================================================================

// Format expands a format string.
// {} uses the display form, {:?} and {:#?} the debug form, {{ and }} are literal braces.
// Every argument must be consumed by exactly one placeholder.
func Format(ctx *types.RunContext, args []types.Value) (string, error) {
	if len(args) == 0 {
		return "", types.NewFault(types.F_ARITY_MISMATCH, "format requires at least a format string")
	}
	resolved := make([]types.Value, len(args))
	for i, arg := range args {
		v, err := ctx.Resolve(arg)
		if err != nil {
			return "", err
		}
		resolved[i] = v
	}
	fmtStr, ok := types.TextOf(resolved[0])
	if !ok {
		return "", types.NewFault(types.F_TYPE_MISMATCH,
			"format argument must be a string literal, found %s", types.TypeName(resolved[0]))
	}
	values := resolved[1:]

	var b strings.Builder
	next := 0
	for i := 0; i < len(fmtStr); i++ {
		c := fmtStr[i]
		switch c {
		case '{':
			if i+1 < len(fmtStr) && fmtStr[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(fmtStr[i:], '}')
			if end < 0 {
				return "", types.NewFault(types.F_TYPE_MISMATCH, "invalid format string: unmatched `{`")
			}
			spec := fmtStr[i+1 : i+end]
			if next >= len(values) {
				return "", types.NewFault(types.F_ARITY_MISMATCH,
					"format string has more placeholders than the %d argument(s) given", len(values))
			}
			switch spec {
			case "":
				b.WriteString(types.Display(values[next]))
			case ":?", ":#?":
				b.WriteString(values[next].String())
			default:
				return "", types.NewFault(types.F_TYPE_MISMATCH, "unsupported format spec {%s}", spec)
			}
			next++
			i += end
		case '}':
			if i+1 < len(fmtStr) && fmtStr[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", types.NewFault(types.F_TYPE_MISMATCH, "invalid format string: unmatched `}`")
		default:
			b.WriteByte(c)
		}
	}
	if next != len(values) {
		return "", types.NewFault(types.F_ARITY_MISMATCH,
			"%d argument(s) never used by the format string", len(values)-next)
	}
	return b.String(), nil
}

// builtinPrint writes formatted text without a newline
// print(fmt, args...) -> ()
func builtinPrint(ctx *types.RunContext, args []types.Value) types.Result {
	s, err := Format(ctx, args)
	if err != nil {
		return types.FromError(err)
	}
	ctx.Print(s)
	return types.Ok(types.Unit)
}

// builtinPrintln writes formatted text followed by a newline
// println() -> ()
// println(fmt, args...) -> ()
func builtinPrintln(ctx *types.RunContext, args []types.Value) types.Result {
	if len(args) == 0 {
		ctx.Print("\n")
		return types.Ok(types.Unit)
	}
	s, err := Format(ctx, args)
	if err != nil {
		return types.FromError(err)
	}
	ctx.Print(s + "\n")
	return types.Ok(types.Unit)
}

// builtinFormat returns formatted text as an owned String
// format(fmt, args...) -> String
func builtinFormat(ctx *types.RunContext, args []types.Value) types.Result {
	s, err := Format(ctx, args)
	if err != nil {
		return types.FromError(err)
	}
	return types.Ok(types.NewText(s))
}

// builtinPanic aborts the run with a formatted message
// panic() / panic(fmt, args...) -> never returns
func builtinPanic(ctx *types.RunContext, args []types.Value) types.Result {
	if len(args) == 0 {
		return types.Raise(types.F_ABORT, "explicit panic")
	}
	s, err := Format(ctx, args)
	if err != nil {
		return types.FromError(err)
	}
	return types.Raise(types.F_ABORT, "%s", s)
}
