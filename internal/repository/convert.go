package repository

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// areaScale matches the NUMERIC(15, 2) area columns.
const areaScale = 2

// areaArg converts area text into a query argument. Nil stays NULL. The
// value is sent as fixed-point text so the server does the numeric cast.
func areaArg(field string, s *string) (any, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", field, *s, err)
	}
	return d.StringFixed(areaScale), nil
}

// intArg converts an integer code into a query argument. Nil stays NULL.
func intArg(field string, s *string) (any, error) {
	if s == nil {
		return nil, nil
	}
	n, err := strconv.ParseInt(*s, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", field, *s, err)
	}
	return int32(n), nil
}

// argBuilder collects converted arguments and keeps the first error.
type argBuilder struct {
	args []any
	err  error
}

func (b *argBuilder) add(v any) {
	b.args = append(b.args, v)
}

func (b *argBuilder) area(field string, s *string) {
	v, err := areaArg(field, s)
	if err != nil && b.err == nil {
		b.err = err
	}
	b.args = append(b.args, v)
}

func (b *argBuilder) int(field string, s *string) {
	v, err := intArg(field, s)
	if err != nil && b.err == nil {
		b.err = err
	}
	b.args = append(b.args, v)
}
