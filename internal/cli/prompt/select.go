package prompt

import (
	"errors"
	"strings"

	"github.com/manifoldco/promptui"
)

// SelectOption is one entry of a selection list.
type SelectOption struct {
	Label       string
	Value       string
	Description string
}

func selectTemplates(withDetails bool) *promptui.SelectTemplates {
	t := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label | white }}",
		Selected: "* {{ .Label | green }}",
	}
	if withDetails {
		t.Details = `
{{ .Description | faint }}`
	}
	return t
}

// Select asks the user to pick one option and returns its Value.
func Select(label string, options []SelectOption) (string, error) {
	if len(options) == 0 {
		return "", errors.New("nothing to select")
	}

	p := promptui.Select{
		Label:     label,
		Items:     options,
		Templates: selectTemplates(options[0].Description != ""),
		Size:      10,
		Searcher: func(input string, i int) bool {
			return containsFold(options[i].Label, input)
		},
	}

	i, _, err := p.Run()
	if err != nil {
		return "", wrapError(err)
	}
	return options[i].Value, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
