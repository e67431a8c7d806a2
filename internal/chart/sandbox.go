package chart

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
)

// maxStatements bounds fragment size; the contract asks for a handful of
// lines and anything bigger is suspect.
const maxStatements = 64

// statement is one parsed sandbox line: either `ident = expr` or a bare
// call expression.
type statement struct {
	assignTo string
	expr     ast.Expr
}

// parseStatement parses a single line of the fragment. The grammar is the Go
// expression grammar, which gives the sandbox a hardened parser without
// admitting any statement forms beyond assignment and calls.
func parseStatement(line string) (*statement, error) {
	if expr, err := parser.ParseExpr(line); err == nil {
		return &statement{expr: expr}, nil
	}

	// Not a bare expression; the only other admissible form is `ident = expr`.
	eq := strings.Index(line, "=")
	if eq < 0 {
		return nil, fmt.Errorf("statement %q is not an expression or assignment", line)
	}
	lhs := strings.TrimSpace(line[:eq])
	if !token.IsIdentifier(lhs) {
		return nil, fmt.Errorf("assignment target %q is not an identifier", lhs)
	}
	expr, err := parser.ParseExpr(strings.TrimSpace(line[eq+1:]))
	if err != nil {
		return nil, fmt.Errorf("parsing right side of %q: %w", line, err)
	}
	return &statement{assignTo: lhs, expr: expr}, nil
}

func (s *statement) callName() (string, bool) {
	call, ok := s.expr.(*ast.CallExpr)
	if !ok {
		return "", false
	}
	ident, ok := call.Fun.(*ast.Ident)
	if !ok {
		return "", false
	}
	return ident.Name, true
}

func (s *statement) isDataAccess() bool {
	if s.assignTo == "" {
		return false
	}
	index, ok := s.expr.(*ast.IndexExpr)
	if !ok {
		return false
	}
	ident, ok := index.X.(*ast.Ident)
	return ok && ident.Name == "data"
}

type builtin func(args []any) (any, error)

// sandbox evaluates screened fragments over an explicit closed scope. Only
// the data table, the plotting primitives and the output path resolve; there
// is no attribute access, no imports, and the only subscript that succeeds
// is string-keyed column access on the data table.
type sandbox struct {
	vars    map[string]any
	funcs   map[string]builtin
	outPath string
	saved   bool
}

func newSandbox(data *Table, outPath string) *sandbox {
	sb := &sandbox{
		vars: map[string]any{
			"data": data,
			"out":  outPath,
		},
		outPath: outPath,
	}
	sb.funcs = map[string]builtin{
		"figure":  sb.builtinFigure,
		"pie":     sb.builtinChart("pie"),
		"bar":     sb.builtinChart("bar"),
		"line":    sb.builtinChart("line"),
		"title":   sb.builtinTitle,
		"savefig": sb.builtinSave,
	}
	return sb
}

// Execute runs a screened fragment against the data table. On success the
// rendered image exists at outPath. Any failure is returned raw; the caller
// wraps it with the offending code.
func Execute(ctx context.Context, code string, data *Table, outPath string) error {
	lines := strings.Split(code, "\n")
	if len(lines) > maxStatements {
		return fmt.Errorf("fragment has %d statements, limit is %d", len(lines), maxStatements)
	}

	sb := newSandbox(data, outPath)
	for _, line := range lines {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		stmt, err := parseStatement(line)
		if err != nil {
			return err
		}
		value, err := sb.eval(stmt.expr)
		if err != nil {
			return err
		}
		if stmt.assignTo != "" {
			if stmt.assignTo == "data" || stmt.assignTo == "out" {
				return fmt.Errorf("cannot reassign %q", stmt.assignTo)
			}
			sb.vars[stmt.assignTo] = value
		}
	}

	if !sb.saved {
		return fmt.Errorf("fragment never called savefig(fig, out)")
	}
	return nil
}

// eval walks the expression against a strict allowlist of node kinds.
// Anything outside it is rejected by construction.
func (sb *sandbox) eval(node ast.Expr) (any, error) {
	switch expr := node.(type) {
	case *ast.Ident:
		value, ok := sb.vars[expr.Name]
		if !ok {
			return nil, fmt.Errorf("undefined name %q", expr.Name)
		}
		return value, nil

	case *ast.BasicLit:
		return evalLiteral(expr)

	case *ast.ParenExpr:
		return sb.eval(expr.X)

	case *ast.IndexExpr:
		return sb.evalIndex(expr)

	case *ast.CallExpr:
		return sb.evalCall(expr)

	default:
		return nil, fmt.Errorf("disallowed syntax %T", node)
	}
}

func evalLiteral(lit *ast.BasicLit) (any, error) {
	switch lit.Kind {
	case token.STRING:
		s, err := strconv.Unquote(lit.Value)
		if err != nil {
			return nil, fmt.Errorf("bad string literal %s: %w", lit.Value, err)
		}
		return s, nil
	case token.INT:
		n, err := strconv.ParseInt(lit.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int literal %s: %w", lit.Value, err)
		}
		return float64(n), nil
	case token.FLOAT:
		f, err := strconv.ParseFloat(lit.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("bad float literal %s: %w", lit.Value, err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("disallowed literal kind %s", lit.Kind)
	}
}

// evalIndex is the guarded item access: only data["column"] resolves.
func (sb *sandbox) evalIndex(expr *ast.IndexExpr) (any, error) {
	target, err := sb.eval(expr.X)
	if err != nil {
		return nil, err
	}
	table, ok := target.(*Table)
	if !ok {
		return nil, fmt.Errorf("only the data table supports indexing, got %T", target)
	}
	key, err := sb.eval(expr.Index)
	if err != nil {
		return nil, err
	}
	name, ok := key.(string)
	if !ok {
		return nil, fmt.Errorf("column index must be a string, got %T", key)
	}
	return table.Column(name)
}

func (sb *sandbox) evalCall(expr *ast.CallExpr) (any, error) {
	ident, ok := expr.Fun.(*ast.Ident)
	if !ok {
		return nil, fmt.Errorf("only direct calls to scope functions are allowed")
	}
	fn, ok := sb.funcs[ident.Name]
	if !ok {
		return nil, fmt.Errorf("undefined function %q", ident.Name)
	}
	args := make([]any, len(expr.Args))
	for i, argExpr := range expr.Args {
		value, err := sb.eval(argExpr)
		if err != nil {
			return nil, err
		}
		args[i] = value
	}
	return fn(args)
}

// builtinFigure exists so contract-conformant fragments that open with
// figure(...) still run; figure size is fixed, so it is a no-op.
func (sb *sandbox) builtinFigure(args []any) (any, error) {
	return nil, nil
}

func (sb *sandbox) builtinChart(kind string) builtin {
	return func(args []any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("%s takes (labels, values), got %d args", kind, len(args))
		}
		labels, err := toStrings(args[0])
		if err != nil {
			return nil, fmt.Errorf("%s labels: %w", kind, err)
		}
		values, err := toFloats(args[1])
		if err != nil {
			return nil, fmt.Errorf("%s values: %w", kind, err)
		}
		return newFigure(kind, labels, values)
	}
}

func (sb *sandbox) builtinTitle(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("title takes (fig, text), got %d args", len(args))
	}
	fig, ok := args[0].(*Figure)
	if !ok {
		return nil, fmt.Errorf("title: first argument must be a figure, got %T", args[0])
	}
	text, ok := args[1].(string)
	if !ok {
		return nil, fmt.Errorf("title: second argument must be a string, got %T", args[1])
	}
	fig.title = text
	return nil, nil
}

// builtinSave renders the figure and writes it to the precomputed output
// path. Writing anywhere else is refused; this is the sandbox's only
// filesystem touchpoint.
func (sb *sandbox) builtinSave(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("savefig takes (fig, out), got %d args", len(args))
	}
	fig, ok := args[0].(*Figure)
	if !ok {
		return nil, fmt.Errorf("savefig: first argument must be a figure, got %T", args[0])
	}
	path, ok := args[1].(string)
	if !ok {
		return nil, fmt.Errorf("savefig: second argument must be the out path, got %T", args[1])
	}
	if path != sb.outPath {
		return nil, fmt.Errorf("savefig: writing to %q is not allowed, only the provided out path", path)
	}
	if sb.saved {
		return nil, fmt.Errorf("savefig: figure already saved, exactly one figure is drawn")
	}
	if err := fig.writePNG(path); err != nil {
		return nil, err
	}
	sb.saved = true
	return nil, nil
}

func toStrings(v any) ([]string, error) {
	switch vals := v.(type) {
	case []string:
		return vals, nil
	case string:
		return []string{vals}, nil
	default:
		return nil, fmt.Errorf("expected a data column, got %T", v)
	}
}

func toFloats(v any) ([]float64, error) {
	switch vals := v.(type) {
	case []string:
		floats := make([]float64, len(vals))
		for i, s := range vals {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("value %q is not numeric", s)
			}
			floats[i] = f
		}
		return floats, nil
	case float64:
		return []float64{vals}, nil
	default:
		return nil, fmt.Errorf("expected a numeric data column, got %T", v)
	}
}
