//go:build cgo

// Package shellparse splits a shell script into the simple commands it
// executes, so trust rules can be checked per command rather than against
// the raw script text. A script with any construct the parser cannot reduce
// to plain argv lists is reported as unparseable and treated as untrusted
// by callers.
package shellparse

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_bash "github.com/tree-sitter/tree-sitter-bash/bindings/go"
)

// Split parses script as bash and returns one argv per simple command.
// Commands joined by &&, ||, ; or | each appear as their own argv.
func Split(script string) ([][]string, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tree_sitter.NewLanguage(tree_sitter_bash.Language())); err != nil {
		return nil, fmt.Errorf("failed to set bash grammar: %w", err)
	}

	source := []byte(script)
	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse script")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		return nil, fmt.Errorf("script is not plain bash")
	}

	var commands [][]string
	var walk func(n *tree_sitter.Node) error
	walk = func(n *tree_sitter.Node) error {
		if n == nil {
			return nil
		}
		switch n.Kind() {
		case "command":
			argv, err := commandArgv(n, source)
			if err != nil {
				return err
			}
			commands = append(commands, argv)
			return nil
		case "comment", ";", "&&", "||", "|":
			return nil
		case "program", "list", "pipeline":
			for i := uint(0); i < n.ChildCount(); i++ {
				if err := walk(n.Child(i)); err != nil {
					return err
				}
			}
			return nil
		default:
			return fmt.Errorf("unsupported shell construct: %s", n.Kind())
		}
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	if len(commands) == 0 {
		return nil, fmt.Errorf("script contains no commands")
	}
	return commands, nil
}

// commandArgv flattens one command node into its words. Expansions and
// substitutions are rejected since their runtime value is unknowable here.
func commandArgv(n *tree_sitter.Node, source []byte) ([]string, error) {
	var argv []string
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		text := string(source[child.StartByte():child.EndByte()])
		switch child.Kind() {
		case "command_name", "word", "number":
			argv = append(argv, text)
		case "string":
			if strings.ContainsAny(text, "$`") {
				return nil, fmt.Errorf("unsupported expansion in %q", text)
			}
			argv = append(argv, strings.Trim(text, `"`))
		case "raw_string":
			argv = append(argv, strings.Trim(text, "'"))
		case "concatenation":
			argv = append(argv, text)
		default:
			return nil, fmt.Errorf("unsupported command element: %s", child.Kind())
		}
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	return argv, nil
}
