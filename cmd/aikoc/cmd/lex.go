package cmd

import (
	"fmt"
	"os"

	"github.com/aikolang/aikoc/internal/ierrors"
	"github.com/aikolang/aikoc/lexer"
	"github.com/spf13/cobra"
)

var (
	lexShowPos  bool
	lexShowType bool
)

var lexCmd = &cobra.Command{
	Use:   "lex <file>",
	Short: "Tokenize an Aiko file and print the resulting tokens",
	Args:  cobra.ExactArgs(1),
	RunE:  runLex,
}

func init() {
	rootCmd.AddCommand(lexCmd)
	lexCmd.Flags().BoolVar(&lexShowPos, "show-pos", false, "show token positions (line:column)")
	lexCmd.Flags().BoolVar(&lexShowType, "show-type", false, "show token type names")
}

func runLex(_ *cobra.Command, args []string) error {
	filename := args[0]
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	l := lexer.New(string(content))
	for {
		tok := l.NextToken()
		printToken(tok)
		if tok.Type == lexer.EOF {
			break
		}
	}

	if errs := l.Errors(); len(errs) > 0 {
		attached := ierrors.AttachSource(errs, string(content), filename)
		fmt.Fprint(os.Stderr, ierrors.FormatErrors(attached, true))
		return fmt.Errorf("lexing failed with %d error(s)", len(errs))
	}
	return nil
}

func printToken(tok lexer.Token) {
	out := ""
	if lexShowType {
		out = fmt.Sprintf("[%-14s]", tok.Type)
	}
	if tok.Literal == "" {
		out += fmt.Sprintf(" %s", tok.Type)
	} else {
		out += fmt.Sprintf(" %q", tok.Literal)
	}
	if lexShowPos {
		out += fmt.Sprintf(" @%d:%d", tok.Line, tok.Column)
	}
	fmt.Println(out)
}
