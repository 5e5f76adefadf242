package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/amirphl/dentalcare/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

// CodeScope names a counter shared by every record of one entity kind
type CodeScope string

// Registered code scopes and their prefixes
const (
	ScopeInventoryItem    CodeScope = "inventory"
	ScopeInventoryRequest CodeScope = "invreq"

	PrefixInventoryItem    = "ITEM"
	PrefixInventoryRequest = "RI"
)

// MinSequenceWidth is the minimum number of digits in a formatted sequence
const MinSequenceWidth = 3

// ErrInvalidCodeInput is returned before any storage access when the scope,
// prefix or options cannot produce a valid code.
var ErrInvalidCodeInput = errors.New("invalid code generation input")

var (
	prefixPattern = regexp.MustCompile(`^[A-Za-z]+$`)
	codePattern   = regexp.MustCompile(`^([A-Za-z]+)-(\d{3,})$`)
)

var (
	codesIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dental_codes_issued_total",
			Help: "Total number of sequential record codes issued",
		},
		[]string{"scope"},
	)

	counterResets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dental_code_counter_resets_total",
			Help: "Total number of counter resets triggered by an empty collection",
		},
		[]string{"scope"},
	)

	codeGenerationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dental_code_generation_errors_total",
			Help: "Total number of failed code generations by stage",
		},
		[]string{"scope", "stage"},
	)
)

// CollectionCounter reports how many records exist in the collection a scope numbers
type CollectionCounter interface {
	CountAll(ctx context.Context) (int64, error)
}

// CodeOptions controls per-call generation behaviour
type CodeOptions struct {
	// ResetWhenEmpty restarts numbering at 1 when Collection holds no records.
	ResetWhenEmpty bool
	Collection     CollectionCounter
}

// CodeGenerator issues human-readable codes of the form PREFIX-NNN
type CodeGenerator interface {
	NextCode(ctx context.Context, scope CodeScope, prefix string, opts CodeOptions) (string, error)
}

// CodeGeneratorImpl implements CodeGenerator on top of a CounterStore
type CodeGeneratorImpl struct {
	store CounterStore
}

// NewCodeGenerator creates a new code generator
func NewCodeGenerator(store CounterStore) CodeGenerator {
	return &CodeGeneratorImpl{store: store}
}

// NextCode returns the next code for scope. When opts.ResetWhenEmpty is set and
// the collection is empty the counter is first reset to zero. The emptiness
// check and the increment are separate steps, so a record inserted between
// them by another caller is not seen by the check.
func (g *CodeGeneratorImpl) NextCode(ctx context.Context, scope CodeScope, prefix string, opts CodeOptions) (string, error) {
	if scope == "" {
		return "", fmt.Errorf("%w: empty scope", ErrInvalidCodeInput)
	}
	if !prefixPattern.MatchString(prefix) {
		return "", fmt.Errorf("%w: prefix %q must be letters only", ErrInvalidCodeInput, prefix)
	}
	if opts.ResetWhenEmpty && opts.Collection == nil {
		return "", fmt.Errorf("%w: reset requested without a collection counter", ErrInvalidCodeInput)
	}

	log := utils.Logger.WithFields(logrus.Fields{"scope": string(scope), "prefix": prefix})

	if opts.ResetWhenEmpty {
		count, err := opts.Collection.CountAll(ctx)
		if err != nil {
			codeGenerationErrors.WithLabelValues(string(scope), "count").Inc()
			log.WithError(err).Error("failed to count collection before code generation")
			return "", fmt.Errorf("count collection for %s: %w", scope, err)
		}
		if count == 0 {
			if err := g.store.ResetTo(ctx, string(scope), 0); err != nil {
				codeGenerationErrors.WithLabelValues(string(scope), "reset").Inc()
				log.WithError(err).Error("failed to reset counter")
				return "", fmt.Errorf("reset counter %s: %w", scope, err)
			}
			counterResets.WithLabelValues(string(scope)).Inc()
			log.Info("collection empty, counter reset")
		}
	}

	n, err := g.store.IncrementAndGet(ctx, string(scope))
	if err != nil {
		codeGenerationErrors.WithLabelValues(string(scope), "increment").Inc()
		log.WithError(err).Error("failed to increment counter")
		return "", fmt.Errorf("increment counter %s: %w", scope, err)
	}

	codesIssued.WithLabelValues(string(scope)).Inc()
	return FormatCode(prefix, n), nil
}

// PadSequence left-pads n with zeros to at least MinSequenceWidth digits.
// Longer numbers are returned in full.
func PadSequence(n int64) string {
	return fmt.Sprintf("%0*d", MinSequenceWidth, n)
}

// FormatCode joins prefix and the padded sequence with a hyphen
func FormatCode(prefix string, n int64) string {
	return prefix + "-" + PadSequence(n)
}

// ParseCode splits a code into its prefix and sequence number
func ParseCode(code string) (string, int64, error) {
	m := codePattern.FindStringSubmatch(code)
	if m == nil {
		return "", 0, fmt.Errorf("%w: malformed code %q", ErrInvalidCodeInput, code)
	}
	n, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: sequence out of range in %q", ErrInvalidCodeInput, code)
	}
	return m[1], n, nil
}
