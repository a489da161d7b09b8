package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strconv"

	"github.com/imranraza-AI/Clothing-brand-website/internal/infra"
)

var sqlKeywords = regexp.MustCompile(`(?i)^\s*(--sql\b|select\b|insert\b|update\b|delete\b|with\b)`)

type violation struct {
	file    string
	line    int
	name    string
	message string
}

func (v violation) String() string {
	return fmt.Sprintf("%s:%d %s (%s)", v.file, v.line, v.message, v.name)
}

type linter struct {
	seen       map[string]string
	violations []violation
}

func newLinter() *linter {
	return &linter{seen: make(map[string]string)}
}

func (l *linter) lintFile(path string) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		return err
	}
	ast.Inspect(file, func(n ast.Node) bool {
		vs, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for i, value := range vs.Values {
			bl, ok := value.(*ast.BasicLit)
			if !ok || bl.Kind != token.STRING {
				continue
			}
			raw, err := strconv.Unquote(bl.Value)
			if err != nil || !sqlKeywords.MatchString(raw) {
				continue
			}
			pos := fset.Position(bl.Pos())
			name := "_"
			if i < len(vs.Names) {
				name = vs.Names[i].Name
			}
			l.check(pos, name, raw)
		}
		return true
	})
	return nil
}

func (l *linter) check(pos token.Position, name, query string) {
	id, _, err := infra.ExtractMarker(query)
	if err != nil {
		l.violations = append(l.violations, violation{pos.Filename, pos.Line, name, "missing or invalid --sql <uuid> marker"})
		return
	}
	at := fmt.Sprintf("%s:%d", pos.Filename, pos.Line)
	if prev, dup := l.seen[id]; dup {
		l.violations = append(l.violations, violation{pos.Filename, pos.Line, name, "marker " + id + " already used at " + prev})
		return
	}
	l.seen[id] = at
}

// marked reports how many distinct markers were seen.
func (l *linter) marked() int { return len(l.seen) }
