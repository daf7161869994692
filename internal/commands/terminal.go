package commands

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// clearValue typed at a prompt replaces a non-empty default with "".
const clearValue = "-"

// terminal reads answers line by line. End of input reads as a close.
type terminal struct {
	in  *bufio.Scanner
	out io.Writer
}

func newTerminal(in io.Reader, out io.Writer) *terminal {
	return &terminal{in: bufio.NewScanner(in), out: out}
}

// ask prints question with its default and returns the answer, the
// default for an empty line, or false at end of input.
func (t *terminal) ask(question, def string) (string, bool) {
	if def != "" {
		fmt.Fprintf(t.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(t.out, "%s: ", question)
	}
	if !t.in.Scan() {
		fmt.Fprintln(t.out)
		return "", false
	}
	answer := strings.TrimSpace(t.in.Text())
	switch answer {
	case "":
		return def, true
	case clearValue:
		return "", true
	}
	return answer, true
}

// choose is ask where a number picks from choices.
func (t *terminal) choose(question, def string, choices []string) (string, bool) {
	answer, ok := t.ask(question, def)
	if !ok {
		return "", false
	}
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(choices) {
		return choices[n-1], true
	}
	return answer, true
}
