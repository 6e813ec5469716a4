package models

import "time"

// Sender is the enriched identity of whoever sent a message, resolved by the
// upstream enrichment step.
type Sender struct {
	Name     string `json:"name,omitempty"`
	Platform string `json:"platform,omitempty"`
	ID       string `json:"id,omitempty"`
}

// EnrichedMessage is the payload of a message.enriched event: a raw inbound
// message plus whatever sender context the enrichment step could resolve.
type EnrichedMessage struct {
	MessageID string  `json:"messageId"`
	Source    string  `json:"source"`
	Body      string  `json:"body"`
	Subject   string  `json:"subject,omitempty"`
	SenderID  string  `json:"senderId,omitempty"`
	Sender    *Sender `json:"sender,omitempty"`
	PageName  string  `json:"pageName,omitempty"`

	// Email threading metadata, present only for source == "email".
	InReplyTo    string            `json:"inReplyTo,omitempty"`
	References   []string          `json:"references,omitempty"`
	EmailHeaders map[string]string `json:"emailHeaders,omitempty"`
}

// Classification is the model's judgment on whether a message is a brand
// collaboration inquiry.
type Classification struct {
	IsBrandInquiry bool     `json:"isBrandInquiry"`
	Confidence     float64  `json:"confidence"`
	Reasoning      string   `json:"reasoning"`
	Keywords       []string `json:"keywords"`
}

// ClassifiedMessage is the payload of a message.classified event: the original
// message fields forwarded alongside the classification verdict.
type ClassifiedMessage struct {
	MessageID string  `json:"messageId"`
	Source    string  `json:"source"`
	Body      string  `json:"body"`
	Subject   string  `json:"subject,omitempty"`
	SenderID  string  `json:"senderId,omitempty"`
	Sender    *Sender `json:"sender,omitempty"`
	PageName  string  `json:"pageName,omitempty"`

	IsBrandInquiry bool      `json:"isBrandInquiry"`
	Confidence     float64   `json:"confidence"`
	Reasoning      string    `json:"reasoning"`
	Keywords       []string  `json:"keywords"`
	ClassifiedAt   time.Time `json:"classifiedAt"`

	// Forwarded only when the source message is an email.
	InReplyTo    string            `json:"inReplyTo,omitempty"`
	References   []string          `json:"references,omitempty"`
	EmailHeaders map[string]string `json:"emailHeaders,omitempty"`
}
