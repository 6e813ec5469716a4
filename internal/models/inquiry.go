package models

import "time"

// Inquiry lifecycle statuses. Within this pipeline the status only moves
// forward: received -> extracted or received -> extraction_failed.
const (
	StatusReceived         = "received"
	StatusExtracted        = "extracted"
	StatusExtractionFailed = "extraction_failed"
)

// ReceivedInquiry is the payload of an inquiry.received event.
type ReceivedInquiry struct {
	InquiryID string  `json:"inquiryId"`
	Source    string  `json:"source"`
	Body      string  `json:"body"`
	SenderID  string  `json:"senderId,omitempty"`
	ThreadKey string  `json:"threadKey,omitempty"`
	Sender    *Sender `json:"sender,omitempty"`
}

// Brand holds the contact details extracted for the inquiring brand.
type Brand struct {
	ContactPerson *string `json:"contactPerson"`
	Email         *string `json:"email"`
}

// Deliverable is one unit of requested content, e.g. one Instagram reel.
type Deliverable struct {
	Type        string `json:"type"`
	Count       int    `json:"count"`
	Description string `json:"description"`
}

// Budget is the compensation mentioned (or not) in an inquiry.
type Budget struct {
	Mentioned bool     `json:"mentioned"`
	Amount    *float64 `json:"amount"`
	Currency  string   `json:"currency"`
}

// Campaign is the campaign ask: deliverables, timeline and budget.
type Campaign struct {
	Deliverables []Deliverable `json:"deliverables"`
	Timeline     *string       `json:"timeline"`
	Budget       Budget        `json:"budget"`
}

// ExtractedDeal is the structured deal data pulled out of an inquiry body.
type ExtractedDeal struct {
	Brand           Brand    `json:"brand"`
	Campaign        Campaign `json:"campaign"`
	Urgency         string   `json:"urgency"`
	AdditionalNotes string   `json:"additionalNotes"`
}

// ExtractedInquiry is the payload of an inquiry.extracted event.
type ExtractedInquiry struct {
	InquiryID string        `json:"inquiryId"`
	Source    string        `json:"source"`
	ThreadKey string        `json:"threadKey,omitempty"`
	Extracted ExtractedDeal `json:"extracted"`
	Sender    *Sender       `json:"sender,omitempty"`
}

// Inquiry is the typed view of a stored inquiry record. The store itself is
// schemaless; upstream steps may attach fields this struct does not name.
type Inquiry struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	ExtractedData *ExtractedDeal `json:"extractedData,omitempty"`
	ExtractedAt   *time.Time     `json:"extractedAt,omitempty"`
	Sender        *Sender        `json:"sender,omitempty"`
	Error         string         `json:"error,omitempty"`
	ThreadKey     string         `json:"threadKey,omitempty"`
}
