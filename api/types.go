package api

import (
	"time"

	"social-insurance/core/calc"
)

// CostShareDTO is one party's share on the wire. Amounts are decimal
// strings with exactly two fractional digits.
type CostShareDTO struct {
	HealthCostWithNoCare string `json:"healthCostWithNoCare"`
	CareCost             string `json:"careCost"`
	Pension              string `json:"pension"`
}

// SocialInsuranceDTO is the success body of the query endpoint
type SocialInsuranceDTO struct {
	EmployeeCost CostShareDTO `json:"employeeCost"`
	EmployerCost CostShareDTO `json:"employerCost"`
}

// ErrorResponseDTO is the structured error envelope
type ErrorResponseDTO struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}

// envelopeTimeLayout is ISO-8601 local datetime without zone offset
const envelopeTimeLayout = "2006-01-02T15:04:05"

func toDTO(res *calc.SocialInsuranceResult) *SocialInsuranceDTO {
	return &SocialInsuranceDTO{
		EmployeeCost: toShareDTO(res.EmployeeCost),
		EmployerCost: toShareDTO(res.EmployerCost),
	}
}

func toShareDTO(share calc.CostShare) CostShareDTO {
	return CostShareDTO{
		HealthCostWithNoCare: share.HealthCostWithNoCare.StringFixed(2),
		CareCost:             share.CareCost.StringFixed(2),
		Pension:              share.Pension.StringFixed(2),
	}
}

func envelopeTimestamp(now time.Time) string {
	return now.Format(envelopeTimeLayout)
}
