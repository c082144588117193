package template

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. CycleDetected, DepthExceeded, InclusionBudgetExceeded and
// IterationBudgetExceeded are raised in every mode; the rest leave the directive
// text in place when the engine is lenient.
var (
	ErrCycleDetected           = errors.New("include cycle detected")
	ErrDepthExceeded           = errors.New("maximum include depth exceeded")
	ErrInclusionBudgetExceeded = errors.New("maximum number of inclusions exceeded")
	ErrIterationBudgetExceeded = errors.New("maximum resolution iterations exceeded")
	ErrTemplateNotFound        = errors.New("template not found")
	ErrUnresolvedVariable      = errors.New("unresolved variable")
	ErrUnknownFilter           = errors.New("unknown filter")
	ErrFilterExecutionFailed   = errors.New("filter execution failed")
	ErrScriptExecutionFailed   = errors.New("script execution failed")
	ErrMalformedInput          = errors.New("malformed template")
)

// Error describes a failure at one directive
type Error struct {
	// Kind is one of the Err* sentinels
	Kind error
	// TemplateID is the template being expanded, empty for inline content
	TemplateID string
	// Directive is the source text of the failing directive
	Directive string
	// Chain is the include chain at the point of failure
	Chain []string
	// Detail names the variable, filter or template involved
	Detail string
	// Cause is the underlying error from a filter, script or catalog
	Cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Directive != "" {
		fmt.Fprintf(&b, " at %q", e.Directive)
	}
	if e.TemplateID != "" {
		fmt.Fprintf(&b, " in template %q", e.TemplateID)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// IsFatal reports whether err signals a termination risk, which is never
// suppressed by lenient mode.
func IsFatal(err error) bool {
	return errors.Is(err, ErrCycleDetected) ||
		errors.Is(err, ErrDepthExceeded) ||
		errors.Is(err, ErrInclusionBudgetExceeded) ||
		errors.Is(err, ErrIterationBudgetExceeded)
}

// lenientKind reports the error kinds that lenient mode swallows
func lenientKind(err error) bool {
	return errors.Is(err, ErrTemplateNotFound) ||
		errors.Is(err, ErrUnresolvedVariable) ||
		errors.Is(err, ErrUnknownFilter) ||
		errors.Is(err, ErrFilterExecutionFailed) ||
		errors.Is(err, ErrScriptExecutionFailed)
}

// newError builds an Error positioned in the current frame
func (pc *processContext) newError(kind error, directive, detail string, cause error) *Error {
	return &Error{
		Kind:       kind,
		TemplateID: pc.templateID(),
		Directive:  directive,
		Chain:      append([]string(nil), pc.chain...),
		Detail:     detail,
		Cause:      cause,
	}
}
