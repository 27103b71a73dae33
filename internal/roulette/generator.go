package roulette

import (
	"context"
	"crypto/rand"
	"io"
	"math/big"
	"time"
)

const DEFAULT_GENERATOR_TIMEOUT = 2 * time.Second

// Generator produces one pocket number per call.
type Generator interface {
	Next(ctx context.Context) (int, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context) (int, error)

func (f GeneratorFunc) Next(ctx context.Context) (int, error) {
	return f(ctx)
}

// Fixed always lands on the given pocket.
func Fixed(n int) Generator {
	return GeneratorFunc(func(context.Context) (int, error) { return n, nil })
}

// CryptoGenerator draws pockets from a cryptographically secure source.
// crypto/rand.Int rejection-samples, so all 37 pockets are equally likely.
type CryptoGenerator struct {
	reader  io.Reader
	timeout time.Duration
}

// NewCryptoGenerator returns a generator reading from crypto/rand.Reader.
func NewCryptoGenerator(timeout time.Duration) *CryptoGenerator {
	return NewGeneratorFromReader(rand.Reader, timeout)
}

// NewGeneratorFromReader builds a generator on top of any entropy source.
func NewGeneratorFromReader(r io.Reader, timeout time.Duration) *CryptoGenerator {
	if timeout <= 0 {
		timeout = DEFAULT_GENERATOR_TIMEOUT
	}
	return &CryptoGenerator{reader: r, timeout: timeout}
}

var pocketCount = big.NewInt(POCKET_COUNT)

type draw struct {
	n   int
	err error
}

// Next returns a pocket in [0,36]. A failing or stalled entropy source is
// reported as GeneratorUnavailable.
func (g *CryptoGenerator) Next(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	ch := make(chan draw, 1)
	go func() {
		v, err := rand.Int(g.reader, pocketCount)
		if err != nil {
			ch <- draw{err: err}
			return
		}
		ch <- draw{n: int(v.Int64())}
	}()

	select {
	case d := <-ch:
		if d.err != nil {
			return 0, Wrap(CodeGeneratorUnavailable, d.err, "entropy source failed")
		}
		return d.n, nil
	case <-ctx.Done():
		return 0, Wrap(CodeGeneratorUnavailable, ctx.Err(), "entropy source timed out")
	}
}
