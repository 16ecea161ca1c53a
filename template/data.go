package template

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one resolved row of the line-items table. Amount is the
// pre-computed quantity × unit price; the renderer never recomputes it.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
}

// DocumentData carries the resolved values poured into a template for one
// concrete document. All totals are pre-computed by the caller from line
// items and settings; this core only formats and lays out.
type DocumentData struct {
	DocType        DocType    `json:"docType"`
	DocumentNumber string     `json:"documentNumber"`
	// Currency is the ISO 4217 code the amounts are denominated in; callers
	// may override it when constructing the formatter.
	Currency       string     `json:"currency,omitempty"`
	Date           time.Time  `json:"date"`
	DueDate        *time.Time `json:"dueDate,omitempty"`

	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail,omitempty"`
	CustomerPhone   string `json:"customerPhone,omitempty"`
	CustomerAddress string `json:"customerAddress,omitempty"`

	LineItems []LineItem `json:"lineItems"`

	Subtotal       decimal.Decimal  `json:"subtotal"`
	DiscountAmount decimal.Decimal  `json:"discountAmount"`
	TaxAmount      decimal.Decimal  `json:"taxAmount"`
	GrandTotal     decimal.Decimal  `json:"grandTotal"`
	AmountPaid     *decimal.Decimal `json:"amountPaid,omitempty"`
	AmountDue      *decimal.Decimal `json:"amountDue,omitempty"`

	AmountInWords string `json:"amountInWords,omitempty"`
	Notes         string `json:"notes,omitempty"`

	// CustomValues maps a custom field's id to its literal value.
	CustomValues map[string]string `json:"customValues,omitempty"`
}
