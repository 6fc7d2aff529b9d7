package bootstrap

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// Prompter obtains a raw answer to a yes/no question. Interpreting the
// answer is left to Decide.
type Prompter interface {
	Ask(ctx context.Context, question string) (string, error)
}

// LinePrompter reads one line from a reader. It works with pipes and
// redirected stdin; EOF yields an empty answer.
type LinePrompter struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewLinePrompter creates a prompter over the given streams.
func NewLinePrompter(r io.Reader, w io.Writer) *LinePrompter {
	return &LinePrompter{reader: bufio.NewReader(r), writer: w}
}

func (p *LinePrompter) Ask(ctx context.Context, question string) (string, error) {
	fmt.Fprintf(p.writer, "%s [y/N]: ", question)

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := p.reader.ReadString('\n')
		ch <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil && !errors.Is(res.err, io.EOF) {
			return "", fmt.Errorf("read answer: %w", res.err)
		}
		return strings.TrimSpace(res.line), nil
	}
}

// HuhPrompter renders a confirm field on a terminal.
type HuhPrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p HuhPrompter) Ask(ctx context.Context, question string) (string, error) {
	var ok bool
	field := huh.NewConfirm().
		Title(question).
		Affirmative("Yes").
		Negative("No").
		Value(&ok)

	form := huh.NewForm(huh.NewGroup(field)).
		WithInput(p.In).
		WithOutput(p.Out).
		WithShowHelp(false)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "n", nil
		}
		return "", fmt.Errorf("consent prompt: %w", err)
	}
	if ok {
		return "y", nil
	}
	return "n", nil
}

// StaticPrompter answers every question with itself. AssumeYes is used for
// --yes.
type StaticPrompter string

const AssumeYes StaticPrompter = "y"

func (p StaticPrompter) Ask(context.Context, string) (string, error) {
	return string(p), nil
}

// SelectPrompter picks the huh prompter when both streams are terminals and
// the line prompter otherwise.
func SelectPrompter(in *os.File, out io.Writer, assumeYes bool) Prompter {
	if assumeYes {
		return AssumeYes
	}
	if f, ok := out.(*os.File); ok && isatty.IsTerminal(in.Fd()) && isatty.IsTerminal(f.Fd()) {
		return HuhPrompter{In: in, Out: f}
	}
	return NewLinePrompter(in, out)
}

type recordedAnswer struct {
	answer string
	err    error
}

func (r recordedAnswer) Ask(context.Context, string) (string, error) {
	return r.answer, r.err
}

// AskNow asks question through p immediately and returns a prompter that
// replays the answer.
func AskNow(ctx context.Context, p Prompter, question string) Prompter {
	answer, err := p.Ask(ctx, question)
	return recordedAnswer{answer: answer, err: err}
}
