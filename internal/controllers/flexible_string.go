package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bahtera1/dashboard-manajemen-kos-overview/internal/lease"
)

// FlexibleString allows JSON fields to be provided as string or number.
// The dashboard sends ids from <select> values, sometimes as numbers.
type FlexibleString string

func (fs *FlexibleString) UnmarshalJSON(data []byte) error {
	if fs == nil {
		return fmt.Errorf("FlexibleString: nil receiver")
	}
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		*fs = FlexibleString(strings.TrimSpace(s))
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err == nil {
		*fs = FlexibleString(num.String())
		return nil
	}

	return fmt.Errorf("FlexibleString: expected string or number, got %s", string(data))
}

func (fs FlexibleString) String() string {
	return string(fs)
}

// FlexibleInt accepts 3 or "3". Empty strings and null leave it at zero.
type FlexibleInt int

func (fi *FlexibleInt) UnmarshalJSON(data []byte) error {
	var fs FlexibleString
	if err := fs.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("FlexibleInt: %w", err)
	}
	if fs == "" {
		return nil
	}
	n, err := strconv.Atoi(fs.String())
	if err != nil {
		return fmt.Errorf("FlexibleInt: expected integer, got %s", string(data))
	}
	*fi = FlexibleInt(n)
	return nil
}

// Date is a calendar date on the wire, "2025-01-31". Full timestamps are reduced
// to their date.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var fs FlexibleString
	if err := fs.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("Date: %w", err)
	}
	if fs == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := lease.ParseDate(fs.String())
	if err != nil {
		return fmt.Errorf("Date: expected YYYY-MM-DD, got %s", string(data))
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(lease.DateLayout))
}

// Ptr returns nil for an unset date.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
