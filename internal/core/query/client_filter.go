// Package query builds the immutable filter and pagination values used by the
// list endpoints. Repositories translate a ClientFilter into their own query
// language; Matches defines the reference semantics.
package query

import (
	"strings"
	"time"

	"github.com/salesdesk/backoffice/internal/core/domain"
)

// DateRange is an inclusive instant range. Zero bounds are open.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

func (r DateRange) contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// ClientFilter is a composed client predicate. Values are never mutated after
// construction; options return modified copies.
type ClientFilter struct {
	BirthDate DateRange
	CreatedAt DateRange

	TaxID     string // substring
	Name      string // case-insensitive substring
	Status    string // exact
	Bank      string // case-insensitive substring, or exact when BankExact
	BankExact bool
	Phone     string // substring

	OwnerID int64
	ByOwner bool
}

// Option folds one optional predicate into a filter.
type Option func(ClientFilter) ClientFilter

// NoFilter matches every client.
func NoFilter() ClientFilter {
	return ClientFilter{}
}

// Build folds opts over NoFilter.
func Build(opts ...Option) ClientFilter {
	return NoFilter().With(opts...)
}

// With returns a copy of f with opts applied in order.
func (f ClientFilter) With(opts ...Option) ClientFilter {
	for _, opt := range opts {
		f = opt(f)
	}
	return f
}

func BirthDateFrom(day time.Time) Option {
	return func(f ClientFilter) ClientFilter {
		f.BirthDate.From = domain.StartOfDay(day)
		return f
	}
}

// BirthDateThrough includes every birth date up to the end of day.
func BirthDateThrough(day time.Time) Option {
	return func(f ClientFilter) ClientFilter {
		f.BirthDate.To = domain.EndOfDay(day)
		return f
	}
}

func CreatedFrom(day time.Time) Option {
	return func(f ClientFilter) ClientFilter {
		f.CreatedAt.From = domain.StartOfDay(day)
		return f
	}
}

// CreatedThrough includes every client created up to 23:59:59.999 UTC of day.
func CreatedThrough(day time.Time) Option {
	return func(f ClientFilter) ClientFilter {
		f.CreatedAt.To = domain.EndOfDay(day)
		return f
	}
}

func TaxIDContains(s string) Option {
	return stringOption(s, func(f *ClientFilter, v string) { f.TaxID = v })
}

func NameContains(s string) Option {
	return stringOption(s, func(f *ClientFilter, v string) { f.Name = v })
}

func StatusIs(s string) Option {
	return stringOption(s, func(f *ClientFilter, v string) { f.Status = v })
}

func BankContains(s string) Option {
	return stringOption(s, func(f *ClientFilter, v string) { f.Bank, f.BankExact = v, false })
}

func BankIs(s string) Option {
	return stringOption(s, func(f *ClientFilter, v string) { f.Bank, f.BankExact = v, true })
}

func PhoneContains(s string) Option {
	return stringOption(s, func(f *ClientFilter, v string) { f.Phone = v })
}

// OwnedBy restricts the filter to one owner, replacing any previous owner.
func OwnedBy(ownerID int64) Option {
	return func(f ClientFilter) ClientFilter {
		f.OwnerID, f.ByOwner = ownerID, true
		return f
	}
}

// AnyOwner drops the owner restriction.
func AnyOwner() Option {
	return func(f ClientFilter) ClientFilter {
		f.OwnerID, f.ByOwner = 0, false
		return f
	}
}

// stringOption ignores blank input so callers can pass raw query values.
func stringOption(s string, set func(*ClientFilter, string)) Option {
	s = strings.TrimSpace(s)
	return func(f ClientFilter) ClientFilter {
		if s != "" {
			set(&f, s)
		}
		return f
	}
}

// Matches reports whether c satisfies every predicate in f.
func (f ClientFilter) Matches(c *domain.Client) bool {
	if !f.BirthDate.contains(c.BirthDate) || !f.CreatedAt.contains(c.CreatedAt) {
		return false
	}
	if f.TaxID != "" && !strings.Contains(c.TaxID, f.TaxID) {
		return false
	}
	if f.Name != "" && !containsFold(c.Name, f.Name) {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Bank != "" {
		if f.BankExact && c.Bank != f.Bank {
			return false
		}
		if !f.BankExact && !containsFold(c.Bank, f.Bank) {
			return false
		}
	}
	if f.Phone != "" && (c.Phone == nil || !strings.Contains(*c.Phone, f.Phone)) {
		return false
	}
	if f.ByOwner && c.OwnerID != f.OwnerID {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
