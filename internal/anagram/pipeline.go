package anagram

import (
	"context"
	"io"
	"os"
)

// Default pipeline budgets.
const (
	DefaultMaxLen = 144
	DefaultMinLen = 40
)

// SignatureSink receives every signature produced for a source, together
// with the offset of the window it came from.
type SignatureSink interface {
	OnSignature(signature string, anchor int64) error
}

// SignatureSinkFunc adapts a function to SignatureSink.
type SignatureSinkFunc func(signature string, anchor int64) error

// OnSignature calls f(signature, anchor).
func (f SignatureSinkFunc) OnSignature(signature string, anchor int64) error {
	return f(signature, anchor)
}

// MultiSignatureSink fans each signature out to every sink in order,
// stopping at the first error.
type MultiSignatureSink []SignatureSink

// OnSignature implements SignatureSink.
func (m MultiSignatureSink) OnSignature(signature string, anchor int64) error {
	for _, s := range m {
		if err := s.OnSignature(signature, anchor); err != nil {
			return err
		}
	}
	return nil
}

// Options configures a Pipeline.
type Options struct {
	MaxLen   int
	MinLen   int
	Alphabet Alphabet
}

// DefaultOptions returns the standard budgets over the Latin alphabet.
func DefaultOptions() Options {
	return Options{
		MaxLen:   DefaultMaxLen,
		MinLen:   DefaultMinLen,
		Alphabet: Latin,
	}
}

// Pipeline wires Tokenizer, WindowBuilder and Canonicalizer together.
// A Pipeline holds no per-run state and may be reused; each Run gets a
// fresh window.
type Pipeline struct {
	opts      Options
	tokenizer *Tokenizer
	canon     *Canonicalizer
}

// NewPipeline creates a pipeline.
func NewPipeline(opts Options) *Pipeline {
	opts.Alphabet = opts.Alphabet.orLatin()
	return &Pipeline{
		opts:      opts,
		tokenizer: NewTokenizer(opts.Alphabet.Accepts),
		canon:     NewCanonicalizer(opts.MinLen, opts.Alphabet),
	}
}

// Options returns the pipeline configuration.
func (p *Pipeline) Options() Options { return p.opts }

// Canonicalizer returns the canonicalizer used for signing windows, which
// is also the one queries must use.
func (p *Pipeline) Canonicalizer() *Canonicalizer { return p.canon }

// Run pushes r through all stages. ctx is checked once per window; a
// cancelled context stops the run with ctx.Err().
func (p *Pipeline) Run(ctx context.Context, r io.Reader, sink SignatureSink) error {
	builder := NewWindowBuilder(p.opts.MaxLen, p.windowSink(ctx, sink))
	if err := p.tokenizer.Tokenize(r, builder); err != nil {
		return err
	}
	return builder.Flush()
}

// RunFile is Run over the file at path. The file is closed on return.
func (p *Pipeline) RunFile(ctx context.Context, path string, sink SignatureSink) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return p.Run(ctx, f, sink)
}

func (p *Pipeline) windowSink(ctx context.Context, sink SignatureSink) WindowSink {
	return WindowSinkFunc(func(w Window) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		anchor := w.Anchor()
		for _, sig := range p.canon.Signatures(w) {
			if err := sink.OnSignature(sig, anchor); err != nil {
				return err
			}
		}
		return nil
	})
}
