package parser

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/dshills/semsearch/pkg/types"
)

// Parser extracts code elements from Python source using tree-sitter
type Parser struct {
	language *sitter.Language
}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{
		language: python.GetLanguage(),
	}
}

// ExtractFile reads a Python file and extracts its function and class declarations.
// Read failures are returned unwrapped so callers can tell them apart from parse errors.
func (p *Parser) ExtractFile(ctx context.Context, filePath string) ([]types.CodeElement, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.Extract(ctx, filePath, content)
}

// Extract parses src and returns one CodeElement per function or class
// declaration, in pre-order of the syntax tree.
func (p *Parser) Extract(ctx context.Context, filePath string, src []byte) ([]types.CodeElement, error) {
	if !utf8.Valid(src) {
		return nil, &types.ParseError{File: filePath, Message: "file is not valid UTF-8"}
	}

	ts := sitter.NewParser()
	ts.SetLanguage(p.language)

	tree, err := ts.ParseCtx(ctx, nil, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &types.ParseError{File: filePath, Message: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(filePath, root)
	}
	if err := checkGrammar(filePath, root); err != nil {
		return nil, err
	}

	extractor := &elementExtractor{
		src:      src,
		filePath: filePath,
		elements: make([]types.CodeElement, 0),
	}
	walk(root, extractor.visit)

	return extractor.elements, nil
}

// nodeClass is the closed set of node kinds the extractor distinguishes
type nodeClass int

const (
	classOther nodeClass = iota
	classFunction
	classClass
)

func classify(n *sitter.Node) nodeClass {
	switch n.Type() {
	case "function_definition":
		// async def is a separate declaration kind and is not reported
		if first := n.Child(0); first != nil && first.Type() == "async" {
			return classOther
		}
		return classFunction
	case "class_definition":
		return classClass
	default:
		return classOther
	}
}

// walk visits every node under root in pre-order
func walk(root *sitter.Node, visit func(*sitter.Node)) {
	cursor := sitter.NewTreeCursor(root)
	defer cursor.Close()

	for {
		visit(cursor.CurrentNode())
		if cursor.GoToFirstChild() {
			continue
		}
		for !cursor.GoToNextSibling() {
			if !cursor.GoToParent() {
				return
			}
		}
	}
}

// elementExtractor collects declarations during traversal
type elementExtractor struct {
	src      []byte
	filePath string
	elements []types.CodeElement
}

func (e *elementExtractor) visit(n *sitter.Node) {
	switch classify(n) {
	case classFunction:
		e.extractFunction(n)
	case classClass:
		e.extractClass(n)
	}
}

func (e *elementExtractor) extractFunction(n *sitter.Node) {
	name := e.content(n.ChildByFieldName("name"))
	params := positionalParams(n.ChildByFieldName("parameters"), e.src)

	e.elements = append(e.elements, types.CodeElement{
		FilePath:   e.filePath,
		Name:       name,
		Kind:       types.KindFunction,
		Signature:  fmt.Sprintf("def %s(%s)", name, strings.Join(params, ", ")),
		Docstring:  docstring(n.ChildByFieldName("body"), e.src),
		LineNumber: int(n.StartPoint().Row) + 1,
	})
}

func (e *elementExtractor) extractClass(n *sitter.Node) {
	name := e.content(n.ChildByFieldName("name"))

	signature := "class " + name
	if bases := simpleBases(n.ChildByFieldName("superclasses"), e.src); len(bases) > 0 {
		signature += "(" + strings.Join(bases, ", ") + ")"
	}

	e.elements = append(e.elements, types.CodeElement{
		FilePath:   e.filePath,
		Name:       name,
		Kind:       types.KindClass,
		Signature:  signature,
		Docstring:  docstring(n.ChildByFieldName("body"), e.src),
		LineNumber: int(n.StartPoint().Row) + 1,
	})
}

func (e *elementExtractor) content(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(e.src)
}

// positionalParams returns the names of ordinary parameters: those after any
// "/" and before the first "*" or "*args".
func positionalParams(params *sitter.Node, src []byte) []string {
	names := make([]string, 0)
	if params == nil {
		return names
	}

	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		switch child.Type() {
		case "identifier":
			names = append(names, child.Content(src))
		case "typed_parameter":
			// typed_parameter also wraps annotated *args and **kwargs
			inner := child.NamedChild(0)
			if inner == nil {
				continue
			}
			switch inner.Type() {
			case "identifier":
				names = append(names, inner.Content(src))
			case "list_splat_pattern":
				return names
			}
		case "default_parameter", "typed_default_parameter":
			if name := child.ChildByFieldName("name"); name != nil {
				names = append(names, name.Content(src))
			}
		case "positional_separator":
			// parameters before "/" are positional-only and not reported
			names = names[:0]
		case "list_splat_pattern", "keyword_separator":
			return names
		}
	}
	return names
}

// simpleBases returns superclass entries that are bare identifiers
func simpleBases(args *sitter.Node, src []byte) []string {
	bases := make([]string, 0)
	if args == nil {
		return bases
	}

	for i := 0; i < int(args.NamedChildCount()); i++ {
		child := args.NamedChild(i)
		if child.Type() == "identifier" {
			bases = append(bases, child.Content(src))
		}
	}
	return bases
}

// syntaxError builds a ParseError located at the first ERROR or MISSING node
func syntaxError(filePath string, root *sitter.Node) error {
	var bad *sitter.Node
	walk(root, func(n *sitter.Node) {
		if bad == nil && (n.Type() == "ERROR" || n.IsMissing()) {
			bad = n
		}
	})

	pe := &types.ParseError{File: filePath, Message: "invalid syntax"}
	if bad != nil {
		pos := bad.StartPoint()
		pe.Line = int(pos.Row) + 1
		pe.Column = int(pos.Column) + 1
		if bad.IsMissing() {
			pe.Message = fmt.Sprintf("invalid syntax: missing %q", bad.Type())
		}
	}
	return pe
}

// checkGrammar rejects constructs the tree-sitter grammar accepts but the
// Python 3 compiler does not. The first offending node is reported.
func checkGrammar(filePath string, root *sitter.Node) error {
	var pe *types.ParseError
	fail := func(n *sitter.Node, msg string) {
		if pe != nil {
			return
		}
		pos := n.StartPoint()
		pe = &types.ParseError{File: filePath, Line: int(pos.Row) + 1, Column: int(pos.Column) + 1, Message: msg}
	}

	walk(root, func(n *sitter.Node) {
		switch n.Type() {
		case "print_statement":
			fail(n, "invalid syntax: print statement")
		case "exec_statement":
			fail(n, "invalid syntax: exec statement")
		case "expression_statement":
			if first := n.NamedChild(0); first != nil && first.Type() == "named_expression" {
				fail(first, "invalid syntax: unparenthesized assignment expression")
			}
		case "block":
			// the grammar turns a bare newline after ":" into an empty block
			stmt := firstStatement(n)
			switch {
			case stmt == nil:
				fail(n, "expected an indented block")
			case !indentedUnder(stmt, n.Parent()):
				fail(stmt, "expected an indented block")
			}
		}
	})

	if pe != nil {
		return pe
	}
	return nil
}

// firstStatement returns the first non-comment child of a block
func firstStatement(block *sitter.Node) *sitter.Node {
	for i := 0; i < int(block.NamedChildCount()); i++ {
		if child := block.NamedChild(i); child.Type() != "comment" {
			return child
		}
	}
	return nil
}

// indentedUnder reports whether stmt is a valid first statement of header's
// body: on the header's line, or on a later line indented past it.
func indentedUnder(stmt, header *sitter.Node) bool {
	if header == nil {
		return true
	}
	if stmt.StartPoint().Row == header.StartPoint().Row {
		return true
	}
	return stmt.StartPoint().Column > header.StartPoint().Column
}
