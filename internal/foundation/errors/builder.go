package errors

import "maps"

// ErrorBuilder assembles a ClassifiedError fluently.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of category with severity error.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{category: category, severity: SeverityError, message: message}}
}

// WrapError starts an error of category caused by err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

// Fatal marks the error as aborting the build cycle.
func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	return b.WithSeverity(SeverityFatal)
}

// Build returns the error. The builder may be reused; later changes do not
// leak into errors already built.
func (b *ErrorBuilder) Build() *ClassifiedError {
	e := b.err
	e.context = maps.Clone(b.err.context)
	return &e
}

// Shorthands for fatal errors of each category.
var (
	ConfigError     = fatalOf(CategoryConfig)
	ValidationError = fatalOf(CategoryValidation)
	RenderError     = fatalOf(CategoryRender)
	HighlightError  = fatalOf(CategoryHighlight)
	TemplateError   = fatalOf(CategoryTemplate)
	FileSystemError = fatalOf(CategoryFileSystem)
	RuntimeError    = fatalOf(CategoryRuntime)
	InternalError   = fatalOf(CategoryInternal)
)

func fatalOf(category ErrorCategory) func(message string) *ErrorBuilder {
	return func(message string) *ErrorBuilder {
		return NewError(category, message).Fatal()
	}
}
