package api

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Validate checks an input payload before it is sent. Only the first failing
// field is reported.
func Validate(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return fmt.Errorf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("%s: failed %s", fe.Field(), fe.Tag())
	}
	return err
}

type ProjectInput struct {
	Name     string  `json:"name" validate:"required,max=100"`
	IsActive bool    `json:"is_active"`
	LeadIDs  []int64 `json:"lead_ids" validate:"required,min=1,dive,gt=0"`
}

type EmployeeInput struct {
	EmpID         int64  `json:"emp_id" validate:"required,gt=0"`
	EmpName       string `json:"emp_name" validate:"required,max=100"`
	EmpLName      string `json:"emp_lname" validate:"required,max=100"`
	Email         string `json:"email" validate:"required,email"`
	IsExperienced bool   `json:"is_experienced"`
	ReportingTo   *int64 `json:"reporting_to,omitempty" validate:"omitempty,gt=0"`
}

type ShiftInput struct {
	ShiftCode        string          `json:"shift_code" validate:"required,max=10"`
	ShiftName        string          `json:"shift_name" validate:"required,max=100"`
	StartTime        string          `json:"start_time" validate:"required,datetime=15:04"`
	EndTime          string          `json:"end_time" validate:"required,datetime=15:04"`
	WeekdayAllowance decimal.Decimal `json:"weekday_allowance" validate:"gte=0"`
	WeekendAllowance decimal.Decimal `json:"weekend_allowance" validate:"gte=0"`
	EffectiveFrom    string          `json:"effective_from" validate:"required,datetime=2006-01-02"`
}

type HolidayInput struct {
	HolidayDate  string          `json:"holiday_date" validate:"required,datetime=2006-01-02"`
	HolidayName  string          `json:"holiday_name" validate:"required,max=100"`
	SplAllowance decimal.Decimal `json:"spl_allowance" validate:"gte=0"`
	ProjectID    *int64          `json:"project_id"`
}

type ResetPasswordInput struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}
