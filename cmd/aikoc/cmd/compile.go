package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aikolang/aikoc/codegen"
	"github.com/aikolang/aikoc/internal/ierrors"
	"github.com/aikolang/aikoc/lexer"
	"github.com/aikolang/aikoc/parser"
	"github.com/spf13/cobra"
)

var (
	compileOutput  string
	compilePrintIR bool
)

var compileCmd = &cobra.Command{
	Use:   "compile <file>",
	Short: "Compile an Aiko source file to textual IR",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "output IR file (default: ./out/main.ll)")
	compileCmd.Flags().BoolVar(&compilePrintIR, "print-ir", false, "echo the emitted IR to stdout")
}

// runCompile drives the full pipeline. An unexpected internal failure
// (a panic inside the generator) is recovered and reported as exit
// 255 — the nearest portable realization of spec.md's documented -1,
// since POSIX process exit codes are unsigned mod 256.
func runCompile(_ *cobra.Command, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "internal error: %v\n", r)
			os.Exit(255)
		}
	}()

	filename := args[0]
	content, readErr := os.ReadFile(filename)
	if readErr != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, readErr)
	}
	source := string(content)

	l := lexer.New(source)
	p := parser.New(l)
	program := p.ParseProgram()

	errs := append(append([]*ierrors.CompilerError{}, l.Errors()...), p.Errors()...)
	if len(errs) > 0 {
		attached := ierrors.AttachSource(errs, source, filename)
		fmt.Fprint(os.Stderr, ierrors.FormatErrors(attached, true))
		return fmt.Errorf("parsing failed with %d error(s)", len(errs))
	}

	gen := codegen.New()
	irText := gen.Generate(program)

	if errs := gen.Errors(); len(errs) > 0 {
		attached := ierrors.AttachSource(errs, source, filename)
		fmt.Fprint(os.Stderr, ierrors.FormatErrors(attached, true))
		return fmt.Errorf("code generation failed with %d error(s)", len(errs))
	}

	out := compileOutput
	if out == "" {
		out = filepath.Join("out", "main.ll")
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(out, []byte(irText), 0644); err != nil {
		return fmt.Errorf("failed to write IR file %s: %w", out, err)
	}

	if compilePrintIR {
		fmt.Print(irText)
	}
	fmt.Printf("Compiled %s -> %s\n", filename, out)
	return nil
}
