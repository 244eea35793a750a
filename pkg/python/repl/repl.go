// Package repl is an interactive loop that shows how Python input is
// tokenized, parsed or bound to symbols.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"
	perrors "github.com/sambeau/pyfront/pkg/python/errors"
	"github.com/sambeau/pyfront/pkg/python/format"
	"github.com/sambeau/pyfront/pkg/python/lexer"
	"github.com/sambeau/pyfront/pkg/python/parser"
	"github.com/sambeau/pyfront/pkg/python/symbols"
)

const PROMPT = ">>> "
const CONTINUATION_PROMPT = "... "

const LOGO = `
█▀█ █▄█ █▀▀ █▀█ █▀█ █▄░█ ▀█▀
█▀▀ ░█░ █▀░ █▀▄ █▄█ █░▀█ ░█░ `

// inputName is the file name shown in diagnostics for REPL input.
const inputName = "<stdin>"

// Mode selects what the REPL prints for each complete input.
type Mode int

const (
	ASTMode Mode = iota
	TokensMode
	SymbolsMode
)

func (m Mode) String() string {
	switch m {
	case TokensMode:
		return "tokens"
	case SymbolsMode:
		return "symbols"
	}
	return "ast"
}

var commands = []string{":ast", ":tokens", ":symbols", ":mode", ":help", "exit", "quit"}

// Start runs the REPL until end of input or an exit command. A terminal on
// stdin gets line editing, history and completion; any other reader is
// consumed line by line.
func Start(in io.Reader, out io.Writer, version string) {
	fmt.Fprintf(out, "%s", LOGO)
	fmt.Fprintln(out, "v", version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit")
	fmt.Fprintln(out, "Type ':help' for REPL commands")
	fmt.Fprintln(out, "")

	s := newSession(out)
	if f, ok := in.(*os.File); ok && f == os.Stdin && liner.TerminalSupported() {
		s.runTerminal()
		return
	}
	s.runReader(in)
}

// session holds the state of one REPL run.
type session struct {
	out   io.Writer
	mode  Mode
	input strings.Builder
	block bool // a compound statement header was read; wait for a blank line
}

func newSession(out io.Writer) *session {
	return &session{out: out}
}

func (s *session) prompt() string {
	if s.input.Len() > 0 {
		return CONTINUATION_PROMPT
	}
	return PROMPT
}

func (s *session) runTerminal() {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(filterCompletions)

	historyFile := filepath.Join(os.TempDir(), ".pyf_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		text, err := line.Prompt(s.prompt())
		if err != nil {
			if err == liner.ErrPromptAborted {
				if s.input.Len() > 0 {
					fmt.Fprintln(s.out, "^C (cleared)")
				} else {
					fmt.Fprintln(s.out, "^C")
				}
				s.reset()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(s.out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(s.out, "Error reading input: %v\n", err)
			continue
		}

		src, done := s.feed(text)
		if done {
			return
		}
		if src != "" {
			line.AppendHistory(src)
			s.eval(src)
		}
	}
}

func (s *session) runReader(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, s.prompt())
		if !scanner.Scan() {
			// Run whatever was still buffered, as a blank line would.
			if s.input.Len() > 0 {
				src := s.input.String()
				s.reset()
				s.eval(src)
			}
			fmt.Fprintln(s.out, "\nGoodbye!")
			return
		}
		src, done := s.feed(scanner.Text())
		if done {
			return
		}
		if src != "" {
			s.eval(src)
		}
	}
}

// feed takes one line of input. It returns the complete source once the
// input is ready to run, and done when the user asked to leave.
func (s *session) feed(text string) (src string, done bool) {
	trimmed := strings.TrimSpace(text)

	if s.input.Len() == 0 {
		switch {
		case trimmed == "exit" || trimmed == "quit":
			fmt.Fprintln(s.out, "Goodbye!")
			return "", true
		case strings.HasPrefix(trimmed, ":"):
			s.command(trimmed)
			return "", false
		case trimmed == "":
			return "", false
		}
	}

	if s.input.Len() > 0 {
		s.input.WriteString("\n")
	}
	s.input.WriteString(text)

	full := s.input.String()
	depth, openString, last := scanInput(full)
	if depth > 0 || openString || last == '\\' {
		return "", false
	}
	if last == ':' {
		s.block = true
	}
	if s.block && trimmed != "" {
		return "", false
	}

	s.reset()
	return full + "\n", false
}

func (s *session) reset() {
	s.input.Reset()
	s.block = false
}

func (s *session) command(cmd string) {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Fprintln(s.out, "REPL Commands:")
		fmt.Fprintln(s.out, "  :help, :h, :?   Show this help")
		fmt.Fprintln(s.out, "  :ast            Print the syntax tree of each input (default)")
		fmt.Fprintln(s.out, "  :tokens         Print the tokens of each input")
		fmt.Fprintln(s.out, "  :symbols        Print the scopes and declarations of each input")
		fmt.Fprintln(s.out, "  :mode           Show the current mode")
		fmt.Fprintln(s.out, "  exit, quit      Exit the REPL")
		fmt.Fprintln(s.out, "")
		fmt.Fprintln(s.out, "A line ending in ':' or an open bracket continues on the next line.")
		fmt.Fprintln(s.out, "Finish an indented block with a blank line.")
	case ":ast":
		s.setMode(ASTMode)
	case ":tokens":
		s.setMode(TokensMode)
	case ":symbols":
		s.setMode(SymbolsMode)
	case ":mode":
		fmt.Fprintf(s.out, "Mode: %s\n", s.mode)
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type :help for commands)\n", cmd)
	}
}

func (s *session) setMode(m Mode) {
	s.mode = m
	fmt.Fprintf(s.out, "Mode: %s\n", m)
}

// eval prints src according to the current mode.
func (s *session) eval(src string) {
	if s.mode == TokensMode {
		for _, tok := range lexer.Tokenize(src, true) {
			fmt.Fprintln(s.out, tok)
			if tok.Err != nil {
				fmt.Fprintf(s.out, "  %s\n", tok.Err.Error())
			}
		}
		return
	}

	p := parser.New(src, inputName)
	module := p.Parse()
	errs := p.StructuredErrors()
	printStructuredErrors(s.out, errs)
	if perrors.CountFatal(errs) > 0 {
		return
	}

	switch s.mode {
	case SymbolsMode:
		io.WriteString(s.out, symbols.Build(module, "__main__").String())
	default:
		io.WriteString(s.out, format.Dump(module))
	}
}

// scanInput reports the open bracket depth of input, whether a triple
// quoted string is still open, and the last byte outside strings and
// comments that is not white space.
func scanInput(input string) (depth int, openString bool, last byte) {
	quote := ""
	for i := 0; i < len(input); i++ {
		ch := input[i]
		if quote != "" {
			switch {
			case ch == '\\':
				i++
			case strings.HasPrefix(input[i:], quote):
				i += len(quote) - 1
				quote = ""
				last = ch
			case ch == '\n' && len(quote) == 1:
				// unterminated; the lexer reports it
				quote = ""
			}
			continue
		}

		switch ch {
		case ' ', '\t', '\r', '\n', '\f':
			continue
		case '#':
			if j := strings.IndexByte(input[i:], '\n'); j >= 0 {
				i += j - 1
			} else {
				i = len(input)
			}
			continue
		case '\'', '"':
			triple := strings.Repeat(string(ch), 3)
			if strings.HasPrefix(input[i:], triple) {
				quote = triple
				i += 2
			} else {
				quote = string(ch)
			}
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		}
		last = ch
	}
	return depth, len(quote) == 3, last
}

// filterCompletions completes the last word of line from the keywords and
// REPL commands.
func filterCompletions(line string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	if last := line[len(line)-1]; last == ' ' || last == '\t' {
		return nil
	}

	start := strings.LastIndexAny(line, " \t([{,") + 1
	prefix, word := line[:start], line[start:]

	candidates := lexer.Keywords()
	if start == 0 {
		candidates = append(candidates, commands...)
	}
	sort.Strings(candidates)

	var matches []string
	for _, c := range candidates {
		if strings.HasPrefix(c, word) {
			matches = append(matches, prefix+c)
		}
	}
	return matches
}

func printStructuredErrors(out io.Writer, errs []*perrors.ParsingError) {
	for _, err := range errs {
		io.WriteString(out, err.PrettyString())
		io.WriteString(out, "\n")
	}
}
