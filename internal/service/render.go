package service

import (
	"fmt"
	"strings"
)

// Text renders the report as plain text for terminals and logs.
func (r *Report) Text() string {
	var sb strings.Builder
	if r.Notice != "" {
		sb.WriteString(r.Notice)
		sb.WriteString("\n")
	}

	switch {
	case r.Summary != "":
		sb.WriteString("Tablet Information Summary\n")
		sb.WriteString(r.Summary)
		sb.WriteString("\n")
	case r.Name != "":
		fmt.Fprintf(&sb, "Tablet: %s\n", r.Name)
	}

	for _, l := range r.Lookups {
		fmt.Fprintf(&sb, "%s: %s\n", l.Source.Label(), l.Value)
	}

	if r.WHOLink != nil {
		fmt.Fprintf(&sb, "%s: %s\n", r.WHOLink.Text, r.WHOLink.URL)
	}
	return sb.String()
}
