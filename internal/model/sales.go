package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the normalized status of a sales order line
type OrderStatus string

const (
	StatusApproved   OrderStatus = "Approved"
	StatusOpen       OrderStatus = "Open"
	StatusInProgress OrderStatus = "InProgress"
	StatusOther      OrderStatus = "Other"
)

// store labels, English and the legacy Portuguese ones
var statusLabels = map[string]OrderStatus{
	"approved":     StatusApproved,
	"aprovado":     StatusApproved,
	"open":         StatusOpen,
	"em aberto":    StatusOpen,
	"inprogress":   StatusInProgress,
	"in progress":  StatusInProgress,
	"in_progress":  StatusInProgress,
	"em andamento": StatusInProgress,
}

// ParseOrderStatus maps a raw status label from the store onto OrderStatus.
// Unknown labels map to StatusOther.
func ParseOrderStatus(label string) OrderStatus {
	if s, ok := statusLabels[strings.ToLower(strings.TrimSpace(label))]; ok {
		return s
	}
	return StatusOther
}

// CountsTowardDemand reports whether a line with this status is real demand
func (s OrderStatus) CountsTowardDemand() bool {
	switch s {
	case StatusApproved, StatusOpen, StatusInProgress:
		return true
	}
	return false
}

// IsOpen reports whether a purchase order in this status is still awaiting receipt
func (s OrderStatus) IsOpen() bool {
	return s == StatusOpen || s == StatusInProgress
}

// SalesLine is one raw, unaggregated sales line item
type SalesLine struct {
	SoldSKU  string
	Quantity decimal.Decimal
	Status   OrderStatus
	SaleDate time.Time
}

// DemandRecord is the total primary-SKU demand over one window
type DemandRecord struct {
	PrimarySKU string
	Demand     decimal.Decimal
}

// Window is an inclusive date range used to scope ledger queries
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// TrailingWindow returns the window of the given number of days ending on end
func TrailingWindow(end time.Time, days int) Window {
	end = truncateDay(end)
	return Window{From: end.AddDate(0, 0, -days), To: end}
}

// Previous returns the window of equal length immediately before w
func (w Window) Previous() Window {
	days := w.Days()
	to := w.From.AddDate(0, 0, -1)
	return Window{From: to.AddDate(0, 0, -days), To: to}
}

// Equal reports whether both windows cover the same dates
func (w Window) Equal(o Window) bool {
	return w.From.Equal(o.From) && w.To.Equal(o.To)
}

// Days is the number of calendar days from From to To. It counts dates, so
// a daylight saving change inside the window does not shorten it.
func (w Window) Days() int {
	return int(utcDate(w.To).Sub(utcDate(w.From)).Hours() / 24)
}

func utcDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
