package srs

import "github.com/parrotdeck/srs-api/internal/domain"

// Params defines all configurable parameters for the SRS algorithm.
type Params struct {
	// Core limits
	MinEaseFactor float64
	MaxEaseFactor float64

	// Lapse handling (quality below 3)
	LapseEasePenalty  float64
	LapseIntervalDays int

	// Staged bootstrap intervals for the first two successful repetitions.
	// These prevent runaway interval growth before a card has any history.
	FirstSuccessIntervalDays  int
	SecondSuccessIntervalDays int
}

// ParamsConfig allows overriding the default parameters when creating a new
// Params instance. Zero values leave the corresponding default in place.
type ParamsConfig struct {
	MinEaseFactor             float64
	MaxEaseFactor             float64
	LapseEasePenalty          float64
	LapseIntervalDays         int
	FirstSuccessIntervalDays  int
	SecondSuccessIntervalDays int
}

// NewDefaultParams creates a new Params instance with default values.
//
// The ease-factor ceiling caps growth from years of repeated quality-5
// reviews. It is configurable.
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor: domain.MinEaseFactor,
		MaxEaseFactor: 10.0,

		LapseEasePenalty:  0.2,
		LapseIntervalDays: 1,

		FirstSuccessIntervalDays:  1,
		SecondSuccessIntervalDays: 6,
	}
}

// NewParams creates a new Params instance with custom configuration.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.MaxEaseFactor > 0 {
		params.MaxEaseFactor = config.MaxEaseFactor
	}
	if config.LapseEasePenalty > 0 {
		params.LapseEasePenalty = config.LapseEasePenalty
	}
	if config.LapseIntervalDays > 0 {
		params.LapseIntervalDays = config.LapseIntervalDays
	}
	if config.FirstSuccessIntervalDays > 0 {
		params.FirstSuccessIntervalDays = config.FirstSuccessIntervalDays
	}
	if config.SecondSuccessIntervalDays > 0 {
		params.SecondSuccessIntervalDays = config.SecondSuccessIntervalDays
	}

	return params
}
