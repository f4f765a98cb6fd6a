package core

import "strings"

// Change types for conventional change reasons.
const (
	ChangeTypeFeat     = "feat"
	ChangeTypeFix      = "fix"
	ChangeTypeDocs     = "docs"
	ChangeTypeRefactor = "refactor"
	ChangeTypeChore    = "chore"
)

// IsChangeType reports whether t is one of the change types above.
func IsChangeType(t string) bool {
	switch t {
	case ChangeTypeFeat, ChangeTypeFix, ChangeTypeDocs, ChangeTypeRefactor, ChangeTypeChore:
		return true
	}
	return false
}

// ChangeFooter is appended to every change reason written by the service.
const ChangeFooter = "Edited-via: encyclopedia"

// FormatChangeReason builds a Conventional Commit style message:
//
//	<type>(<scope>): <subject>
//
//	<body>
//
//	Edited-via: encyclopedia
func FormatChangeReason(ctype, scope, subject, body string) string {
	var sb strings.Builder

	if ctype == "" {
		ctype = ChangeTypeChore
	}
	sb.WriteString(ctype)

	if scope != "" {
		sb.WriteString("(")
		sb.WriteString(scope)
		sb.WriteString(")")
	}

	sb.WriteString(": ")
	sb.WriteString(subject)

	if body != "" {
		sb.WriteString("\n\n")
		sb.WriteString(strings.TrimSpace(body))
	}

	sb.WriteString("\n\n")
	sb.WriteString(ChangeFooter)

	return sb.String()
}

// AppendFooter appends the footer to a free-form message if not present.
func AppendFooter(msg string) string {
	if strings.Contains(msg, ChangeFooter) {
		return msg
	}
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	if !strings.HasSuffix(msg, "\n\n") {
		msg += "\n"
	}
	return msg + ChangeFooter
}
