package cmd

import (
	"fmt"
	"strings"

	"github.com/aikolang/aikoc/lexer"
	"github.com/aikolang/aikoc/parser"
	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	replBlue   = color.New(color.FgBlue)
	replYellow = color.New(color.FgYellow)
	replRed    = color.New(color.FgRed)
	replGreen  = color.New(color.FgGreen)
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactively lex and parse Aiko statements",
	Long: `repl reads one Aiko statement at a time, tokenizes and parses it,
and prints the resulting AST shape. aikoc has no interpreter in scope,
so repl never executes anything — it is a grammar-exploration aid.`,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(_ *cobra.Command, _ []string) error {
	replGreen.Println("aiko repl — lex+parse echo loop, Ctrl+D to exit")

	rl, err := readline.New("aiko> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			fmt.Println()
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rl.SaveHistory(line)
		evalLine(line)
	}
}

func evalLine(line string) {
	l := lexer.New(line)
	p := parser.New(l)
	program := p.ParseProgram()

	if errs := p.Errors(); len(errs) > 0 {
		for _, e := range errs {
			replRed.Printf("%s\n", e.Format(true))
		}
		return
	}

	for _, stmt := range program.Statements {
		replYellow.Printf("%T\n", stmt)
		dumpStatement(stmt, 1)
	}
	replBlue.Println("---")
}
