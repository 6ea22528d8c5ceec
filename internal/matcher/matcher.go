package matcher

import (
	"context"
	"io"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/akihikokuroda/typematch/internal/input"
	"github.com/akihikokuroda/typematch/pkg/match"
	"github.com/akihikokuroda/typematch/pkg/sat/factory"
)

// Solution maps each matched class name to the type it was matched with.
type Solution map[string]string

// Matcher runs one Generate and Solve session over a set of classes.
type Matcher struct {
	classes      *input.Classes
	transitivity bool
	searchTrace  io.Writer
}

type Option func(m *Matcher) error

func WithTransitivity(enabled bool) Option {
	return func(m *Matcher) error {
		m.transitivity = enabled
		return nil
	}
}

// WithSearchTrace writes the backend's trace of rejected hints to w.
func WithSearchTrace(w io.Writer) Option {
	return func(m *Matcher) error {
		m.searchTrace = w
		return nil
	}
}

func NewMatcher(classes *input.Classes, options ...Option) (Matcher, error) {
	if classes == nil {
		return Matcher{}, errors.New("no input classes")
	}
	m := Matcher{classes: classes, transitivity: true}
	for _, option := range options {
		if err := option(&m); err != nil {
			return Matcher{}, err
		}
	}
	return m, nil
}

// Solve matches the incomplete classes against the complete ones. Events
// are logged to the logger in ctx.
func (m Matcher) Solve(ctx context.Context) (Solution, error) {
	log := logr.FromContextOrDiscard(ctx)
	log.Info("matching classes", "complete", len(m.classes.Complete), "incomplete", len(m.classes.Incomplete))
	defer log.Info("finished matching classes")

	options := []match.Option{
		match.WithTracer(match.LoggingTracer{Logger: log}),
		match.WithTransitivity(m.transitivity),
	}
	if m.searchTrace != nil {
		p, err := factory.NewTracingProblem(m.searchTrace)
		if err != nil {
			return nil, err
		}
		options = append(options, match.WithProblem(p))
	}

	encoder, err := match.NewEncoder(options...)
	if err != nil {
		return nil, err
	}
	if err := encoder.Generate(m.classes.Complete, m.classes.Incomplete); err != nil {
		return nil, errors.Wrap(err, "failed to generate constraints")
	}
	substitution, err := encoder.Solve(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to solve constraints")
	}

	solution := Solution{}
	for name, ref := range substitution {
		solution[name] = ref.String()
	}
	return solution, nil
}
