package config

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// ValidationError reports the first option that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid options: " + e.Message
	}
	return fmt.Sprintf("invalid options: %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks every field against the options schema, then the rules
// that span fields.
func (o Options) Validate() error {
	if err := o.validateSchema(); err != nil {
		return err
	}

	if o.Lowercase && o.Uppercase {
		return &ValidationError{Field: "lowercase", Message: "lowercase and uppercase folding are mutually exclusive"}
	}
	for _, c := range []struct{ field, value string }{
		{"record_start", o.RecordStart},
		{"accession_end", o.AccessionEnd},
		{"delimiter", o.Delimiter},
	} {
		if c.value == "\x00" {
			return &ValidationError{Field: c.field, Message: "NUL is not a valid character"}
		}
	}
	if o.RecordStart == o.AccessionEnd {
		return &ValidationError{Field: "accession_end", Message: "must differ from record_start"}
	}
	return nil
}

func (o Options) validateSchema() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile options schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Options"))
	v := def.Unify(ctx.Encode(o))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return schemaError(err)
	}
	return nil
}

// schemaError converts the first CUE error into a ValidationError naming the
// offending field.
func schemaError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	first := errs[0]

	var field string
	if path := first.Path(); len(path) > 0 {
		field = path[len(path)-1]
	}
	format, args := first.Msg()
	msg := fmt.Sprintf(format, args...)
	return &ValidationError{Field: field, Message: strings.TrimSpace(msg)}
}
