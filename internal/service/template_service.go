package service

import (
	"fmt"
	"regexp"
)

// TemplateService handles message template rendering. Placeholders use the
// {{identifier}} form with alphanumeric/underscore identifiers; substitution
// is plain text replacement, never code evaluation, so untrusted template
// content is safe.
type TemplateService struct{}

// NewTemplateService creates a new template service
func NewTemplateService() *TemplateService {
	return &TemplateService{}
}

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Render substitutes {{var}} placeholders from the variable map. Matching is
// case-sensitive. A placeholder without a variable is left verbatim so a
// missing variable stays visibly diagnosable instead of silently blanking.
func (s *TemplateService) Render(template string, variables map[string]string) string {
	if template == "" {
		return ""
	}

	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if value, ok := variables[name]; ok {
			return value
		}
		return match
	})
}

// Placeholders extracts the placeholder identifiers from a template, in order
// of first appearance
func (s *TemplateService) Placeholders(template string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(template, -1)
	seen := map[string]bool{}
	names := []string{}
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// ValidateTemplate checks a template for obviously malformed placeholder
// syntax (unbalanced braces)
func (s *TemplateService) ValidateTemplate(template string) error {
	if template == "" {
		return fmt.Errorf("template cannot be empty")
	}

	open := 0
	for i := 0; i+1 < len(template); i++ {
		if template[i] == '{' && template[i+1] == '{' {
			open++
			i++
		} else if template[i] == '}' && template[i+1] == '}' {
			open--
			i++
			if open < 0 {
				return fmt.Errorf("template has unbalanced braces")
			}
		}
	}
	if open != 0 {
		return fmt.Errorf("template has unbalanced braces")
	}

	return nil
}
