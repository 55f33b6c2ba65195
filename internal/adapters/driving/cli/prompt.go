package cli

import (
	"bufio"
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// errInvalidSelection is returned when a menu has no default and the
// answer is not one of its numbers.
var errInvalidSelection = errors.New("invalid selection")

// prompter asks questions on a command's input and output. One prompter
// should serve a whole dialogue since it buffers the input.
type prompter struct {
	cmd *cobra.Command
	in  *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{cmd: cmd, in: bufio.NewReader(cmd.InOrStdin())}
}

// read returns the next trimmed line. EOF reads as an empty answer.
func (p *prompter) read() string {
	line, _ := p.in.ReadString('\n')
	return strings.TrimSpace(line)
}

// ask prints question and returns the answer, or def when it is empty.
func (p *prompter) ask(question, def string) string {
	if def != "" {
		p.cmd.Printf("%s [%s]: ", question, def)
	} else {
		p.cmd.Printf("%s: ", question)
	}
	if answer := p.read(); answer != "" {
		return answer
	}
	return def
}

// menu lists options numbered from 1 and returns the index picked. def
// is the 1-based default; with def 0 there is none and an empty or
// out-of-range answer is errInvalidSelection.
func (p *prompter) menu(options []string, def int) (int, error) {
	for i, o := range options {
		p.cmd.Printf("  %d. %s\n", i+1, o)
	}
	if def > 0 {
		p.cmd.Printf("\nEnter choice [%d]: ", def)
	} else {
		p.cmd.Print("\nEnter choice: ")
	}
	n := parseChoice(p.read(), len(options), def)
	if n == 0 {
		return 0, errInvalidSelection
	}
	return n - 1, nil
}

// secret reads without echo when stdin is a terminal.
func (p *prompter) secret(question string) string {
	p.cmd.Printf("%s: ", question)
	defer p.cmd.Println()
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		if b, err := term.ReadPassword(fd); err == nil {
			return strings.TrimSpace(string(b))
		}
	}
	return p.read()
}

// yes asks a y/N question.
func (p *prompter) yes(question string) bool {
	switch strings.ToLower(p.ask(question+" [y/N]", "")) {
	case "y", "yes":
		return true
	}
	return false
}

// confirm asks a one-off y/N question on cmd's input.
func confirm(cmd *cobra.Command, question string) bool {
	return newPrompter(cmd).yes(question)
}

// parseChoice returns the 1-based choice in input, or def when input is
// empty, not a number, or outside 1..n.
func parseChoice(input string, n, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || v < 1 || v > n {
		return def
	}
	return v
}
