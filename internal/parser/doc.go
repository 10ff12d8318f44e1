// Package parser extracts function and class declarations from Python source files.
//
// The parser uses the tree-sitter Python grammar to build a concrete syntax
// tree, then walks every node in pre-order and classifies it as a function
// declaration, a class declaration or anything else. Declarations are
// collected wherever they appear, including nested inside other functions and
// classes.
//
// # Basic Usage
//
//	p := parser.New()
//	elements, err := p.ExtractFile(ctx, "/path/to/module.py")
//	if err != nil {
//	    var pe *types.ParseError
//	    if errors.As(err, &pe) {
//	        fmt.Printf("skipping %s:%d: %s\n", pe.File, pe.Line, pe.Message)
//	    }
//	}
//
//	for _, e := range elements {
//	    fmt.Printf("%s %s at line %d\n", e.Kind, e.Signature, e.LineNumber)
//	}
//
// # Signatures
//
// Function signatures list positional parameter names only:
//
//	def fetch(self, url: str, timeout=30, *args, retries=3, **kw)
//	// "def fetch(self, url, timeout)"
//
// Class signatures list bases that are plain identifiers:
//
//	class Repo(Base, typing.Generic[T], metaclass=ABCMeta)
//	// "class Repo(Base)"
//
// # Docstrings
//
// A docstring is the first statement of the body when that statement is a
// plain string literal. The value is the evaluated literal: prefixes and
// quotes removed, escape sequences processed (except for raw strings),
// indentation untouched. Byte strings and f-strings are not docstrings.
//
// # Error Handling
//
// Syntax errors are fatal for the file: Extract returns a *types.ParseError
// pointing at the first error node and no elements. Async functions are not
// reported.
//
// A Parser is safe for concurrent use; every call builds its own tree-sitter
// parser.
package parser
