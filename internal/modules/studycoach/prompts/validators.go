package prompts

import (
	"fmt"
	"strings"
)

type Validator func(Input) error

func RequireNonEmpty(field string, get func(Input) string) Validator {
	return func(in Input) error {
		if get == nil {
			return fmt.Errorf("validator for %s: getter is nil", field)
		}
		if strings.TrimSpace(get(in)) == "" {
			return fmt.Errorf("%s required", field)
		}
		return nil
	}
}

func RequireRange(field string, get func(Input) (int, int)) Validator {
	return func(in Input) error {
		lo, hi := get(in)
		if lo <= 0 || hi < lo {
			return fmt.Errorf("%s: invalid range %d..%d", field, lo, hi)
		}
		return nil
	}
}
