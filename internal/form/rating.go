package form

import "github.com/jwalitptl/patientor/internal/model"

// IncrementRating raises the health check rating by one, stopping at the
// upper bound.
func (v Values) IncrementRating() Values {
	if v.CanIncrementRating() {
		v.HealthCheckRating++
	}
	return v
}

// DecrementRating lowers the health check rating by one, stopping at the
// lower bound.
func (v Values) DecrementRating() Values {
	if v.CanDecrementRating() {
		v.HealthCheckRating--
	}
	return v
}

func (v Values) CanIncrementRating() bool {
	return v.HealthCheckRating < int(model.MaxHealthCheckRating)
}

func (v Values) CanDecrementRating() bool {
	return v.HealthCheckRating > int(model.MinHealthCheckRating)
}
