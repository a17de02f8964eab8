package chart

import (
	"regexp"
	"slices"

	"go.uber.org/zap"
)

const (
	// shortCodeLen is the number of significant digits in an active
	// account code; the trailing sub-ledger suffix is discarded.
	shortCodeLen = 6

	// inactiveCodeLen is the length of inactive account codes.
	inactiveCodeLen = 5

	otherName     = "Other"
	noProgramName = "No Program"
)

// tagUnsafe matches every character outside the AWS tag-value charset.
// Names are scrubbed globally so the chart and tag routes agree.
var tagUnsafe = regexp.MustCompile(`[^A-Za-z0-9 .:/=+\-@]+`)

// Options control a single processing run. Defaults come from
// configuration; query-string options override them per request.
type Options struct {
	// HideInactive drops codes shorter than six digits.
	HideInactive bool
	// ShowOther injects the synthetic "Other" entry.
	ShowOther bool
	// ShowNoProgram injects the synthetic "No Program" entry.
	ShowNoProgram bool
	// PriorityCodes are short codes moved to the front of the output,
	// keeping their relative order.
	PriorityCodes []string
	// Limit truncates the output when positive; zero means unlimited.
	Limit int
}

// Processor turns a raw chart into the client-facing chart.
type Processor struct {
	omitCodes     []string
	otherCode     string
	noProgramCode string
	logger        *zap.Logger
}

// NewProcessor creates a Processor. omitCodes are short codes excluded
// from every run; otherCode and noProgramCode are the synthetic codes
// injected on request.
func NewProcessor(omitCodes []string, otherCode, noProgramCode string, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		omitCodes:     omitCodes,
		otherCode:     otherCode,
		noProgramCode: noProgramCode,
		logger:        logger,
	}
}

// Process deduplicates, filters, reorders and augments the raw chart.
//
// Codes of at least six digits are truncated to their six significant
// digits; five-digit codes are inactive and survive only when
// HideInactive is off. The first occurrence of a short code wins.
// Priority codes are front-inserted in iteration order, and synthetic
// entries are injected ahead of everything else ("No Program" before
// "Other" when both are enabled).
func (p *Processor) Process(raw Chart, opts Options) Chart {
	found := make(map[string]struct{}, len(raw)+len(p.omitCodes))
	for _, code := range p.omitCodes {
		found[code] = struct{}{}
	}

	minLen := inactiveCodeLen
	if opts.HideInactive {
		minLen = shortCodeLen
	}

	out := make(Chart, 0, len(raw))

	// Index where the next priority entry lands; priority entries keep
	// their relative order while staying ahead of natural entries.
	priorityAt := 0

	for _, e := range raw {
		if len(e.Code) < minLen {
			continue
		}
		short := e.Code
		if len(short) > shortCodeLen {
			short = short[:shortCodeLen]
		}
		name := tagUnsafe.ReplaceAllString(e.Name, "")

		if _, ok := found[short]; ok {
			p.logger.Info("Skipping already-processed code", zap.String("code", short))
			continue
		}

		if slices.Contains(opts.PriorityCodes, short) {
			out = slices.Insert(out, priorityAt, Entry{Code: short, Name: name})
			priorityAt++
		} else {
			out = append(out, Entry{Code: short, Name: name})
		}
		found[short] = struct{}{}
	}

	if opts.ShowOther {
		out = slices.Insert(out, 0, Entry{Code: p.otherCode, Name: otherName})
	}
	if opts.ShowNoProgram {
		out = slices.Insert(out, 0, Entry{Code: p.noProgramCode, Name: noProgramName})
	}

	return out
}

// Limit returns the first n entries of the chart when n is positive,
// or the chart unchanged otherwise. The input is never mutated.
func Limit(c Chart, n int) Chart {
	if n <= 0 || n >= len(c) {
		return c
	}
	return slices.Clone(c[:n])
}
