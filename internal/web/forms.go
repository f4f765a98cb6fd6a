package web

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/aretw0/encyclopedia/pkg/core"
)

// EntryForm is submitted by the create and edit pages.
type EntryForm struct {
	Title   string `form:"title" json:"title"`
	Content string `form:"content" json:"content"`
}

// Validate checks the form; errors are keyed by field name.
func (f EntryForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Title,
			validation.Required.Error("A title is required."),
			validation.By(titleRule),
		),
		validation.Field(&f.Content, validation.Required.Error("The page cannot be empty.")),
	)
}

// titleRule applies the storage rules for titles. Length is measured in
// bytes, like core.Key, because titles become file names.
func titleRule(value any) error {
	title, _ := value.(string)
	if len(strings.TrimSpace(title)) > core.MaxTitleLength {
		return validation.NewError("validation_title_too_long",
			fmt.Sprintf("The title is too long (at most %d bytes).", core.MaxTitleLength))
	}
	if _, err := core.Key(title); err != nil {
		return validation.NewError("validation_title_unusable",
			"Titles cannot contain slashes or control characters, or be \".\" or \"..\".")
	}
	return nil
}

func (f *EntryForm) normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Content = strings.ReplaceAll(f.Content, "\r\n", "\n")
}

// fieldErrors flattens a validation error for the templates. Anything that is
// not a per-field error lands under "form".
func fieldErrors(err error) map[string]string {
	out := make(map[string]string)
	var errs validation.Errors
	if errors.As(err, &errs) {
		for field, fieldErr := range errs {
			out[field] = fieldErr.Error()
		}
		return out
	}
	out["form"] = err.Error()
	return out
}
