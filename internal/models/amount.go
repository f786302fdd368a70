package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Amount is an optional numeric quantity. The zero value is None.
type Amount struct {
	value float64
	valid bool
}

// Some wraps a present amount.
func Some(v float64) Amount {
	return Amount{value: v, valid: true}
}

// None is the absent amount.
func None() Amount {
	return Amount{}
}

// AmountFromPtr converts a nullable float to an Amount.
func AmountFromPtr(v *float64) Amount {
	if v == nil {
		return None()
	}
	return Some(*v)
}

// Get returns the value and whether it is present.
func (a Amount) Get() (float64, bool) {
	return a.value, a.valid
}

func (a Amount) IsSome() bool { return a.valid }

// OrZero returns the value, or 0 when absent.
func (a Amount) OrZero() float64 {
	if !a.valid {
		return 0
	}
	return a.value
}

// Ptr returns a pointer to the value, or nil when absent.
func (a Amount) Ptr() *float64 {
	if !a.valid {
		return nil
	}
	v := a.value
	return &v
}

func (a Amount) String() string {
	if !a.valid {
		return "-"
	}
	return strconv.FormatFloat(a.value, 'f', -1, 64)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.value)
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = None()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Some(v)
	return nil
}
