package tasks

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/user/taskman-go/apperror"
)

// FieldRule is a declarative constraint on a text field.
type FieldRule struct {
	Name          string
	Required      bool
	MaxLength     int
	AllowedValues []string
}

// UploadRule is a declarative constraint on an uploaded attachment.
type UploadRule struct {
	Name              string
	AllowedExtensions []string
	MaxSize           int64
}

// maxUploadSize is 2048 KB, the cap for both attachment kinds.
const maxUploadSize = 2048 * 1024

var (
	titleRule       = FieldRule{Name: "title", Required: true, MaxLength: 255}
	descriptionRule = FieldRule{Name: "description"}
	statusRule      = FieldRule{Name: "status", AllowedValues: []string{"pending", "completed"}}

	fileRule  = UploadRule{Name: "file", AllowedExtensions: []string{"pdf", "doc", "docx"}, MaxSize: maxUploadSize}
	imageRule = UploadRule{Name: "image", AllowedExtensions: []string{"jpg", "jpeg", "png", "gif"}, MaxSize: maxUploadSize}
)

// Apply checks a field value against the rule. A nil value means the field was
// not supplied, which only fails when the rule requires it.
func (r FieldRule) Apply(value *string) []string {
	if value == nil || *value == "" {
		if r.Required {
			return []string{fmt.Sprintf("The %s field is required.", r.Name)}
		}
		return nil
	}

	var msgs []string
	if r.MaxLength > 0 && utf8.RuneCountInString(*value) > r.MaxLength {
		msgs = append(msgs, fmt.Sprintf("The %s may not be greater than %d characters.", r.Name, r.MaxLength))
	}
	if len(r.AllowedValues) > 0 && !slices.Contains(r.AllowedValues, *value) {
		msgs = append(msgs, fmt.Sprintf("The selected %s is invalid.", r.Name))
	}
	return msgs
}

// Apply checks an upload's extension and size. Uploads are always optional; a
// nil upload passes.
func (r UploadRule) Apply(u *Upload) []string {
	if u == nil {
		return nil
	}

	var msgs []string
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(u.Filename)), ".")
	if !slices.Contains(r.AllowedExtensions, ext) {
		msgs = append(msgs, fmt.Sprintf("The %s must be a file of type: %s.", r.Name, strings.Join(r.AllowedExtensions, ", ")))
	}
	if u.Size > r.MaxSize {
		msgs = append(msgs, fmt.Sprintf("The %s may not be greater than %d kilobytes.", r.Name, r.MaxSize/1024))
	}
	return msgs
}

// validateInput applies the operation's rule set to the input and aggregates
// every violation into one field-keyed ValidationError. Status values are only
// constrained on update, matching create's looser contract.
func validateInput(in TaskInput, withStatus bool) error {
	fields := make(map[string][]string)
	add := func(name string, msgs []string) {
		if len(msgs) > 0 {
			fields[name] = append(fields[name], msgs...)
		}
	}

	add(titleRule.Name, titleRule.Apply(in.Title))
	add(descriptionRule.Name, descriptionRule.Apply(in.Description))
	if withStatus {
		add(statusRule.Name, statusRule.Apply(in.Status))
	}
	add(fileRule.Name, fileRule.Apply(in.File))
	add(imageRule.Name, imageRule.Apply(in.Image))

	if len(fields) > 0 {
		return apperror.NewValidationError("The given data was invalid", nil).WithFields(fields)
	}
	return nil
}
