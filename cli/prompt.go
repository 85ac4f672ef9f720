package cli

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"

	"github.com/npillmayer/scurve"
)

func parsePositive(s string) (float64, error) {
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if !scurve.IsFinite(x) || x <= 0 {
		return 0, fmt.Errorf("must be finite and positive: %g", x)
	}
	return x, nil
}

func validatePositive(s string) error {
	_, err := parsePositive(s)
	return err
}

// promptLimits asks for each limit in turn, offering base as default.
func promptLimits(base scurve.Limits) (scurve.Limits, error) {
	l := base
	for _, q := range []struct {
		label string
		value *float64
	}{
		{"Maximum jerk", &l.JerkMax},
		{"Maximum acceleration", &l.AccelMax},
		{"Maximum velocity", &l.VelMax},
		{"Distance", &l.Distance},
	} {
		prompt := promptui.Prompt{
			Label:    q.label,
			Default:  strconv.FormatFloat(*q.value, 'g', -1, 64),
			Validate: validatePositive,
		}
		answer, err := prompt.Run()
		if err != nil {
			return base, errors.Wrap(err, "prompt failed")
		}
		if *q.value, err = parsePositive(answer); err != nil {
			return base, err
		}
	}
	return l, l.Validate()
}
