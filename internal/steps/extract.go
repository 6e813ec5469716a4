package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"creatoros/internal/bus"
	"creatoros/internal/completion"
	"creatoros/internal/models"
	"creatoros/internal/storage"
)

const extractSystemPrompt = `You are a data extraction AI for a Creator Operating System in India.

Extract brand collaboration details from the message and return ONLY valid JSON.

Required JSON structure:
{
  "brand": {
    "contactPerson": "Person's name or null",
    "email": "Email address or null"
  },
  "campaign": {
    "deliverables": [
      {
        "type": "instagram_reel|instagram_post|youtube_video|youtube_short|other",
        "count": 1,
        "description": "What they want"
      }
    ],
    "timeline": "Timeline string like '2 weeks' or null",
    "budget": {
      "mentioned": true or false,
      "amount": number or null,
      "currency": "INR"
    }
  },
  "urgency": "high|medium|low",
  "additionalNotes": "Other relevant info or empty string"
}

CRITICAL: Return ONLY the JSON object. No markdown code blocks, no explanations.`

// Extractor is the ExtractInquiry step: inquiry.received in, inquiry.extracted
// out. On success it moves the stored inquiry to status extracted; on any
// failure it moves it to extraction_failed and emits nothing. Concurrent
// extractions for the same inquiry id race on the store, last write wins.
type Extractor struct {
	client      completion.Client
	emitter     bus.Emitter
	store       storage.Store
	temperature float32
	logger      *zap.Logger
}

func NewExtractor(client completion.Client, emitter bus.Emitter, store storage.Store, temperature float32, logger *zap.Logger) *Extractor {
	return &Extractor{
		client:      client,
		emitter:     emitter,
		store:       store,
		temperature: temperature,
		logger:      logger,
	}
}

func (e *Extractor) Handle(ctx context.Context, inquiry models.ReceivedInquiry) {
	e.logger.Info("Starting extraction",
		zap.String("inquiry_id", inquiry.InquiryID),
		zap.String("source", inquiry.Source))

	if inquiry.Body == "" {
		e.logger.Warn("No message body for inquiry, skipping extraction",
			zap.String("inquiry_id", inquiry.InquiryID))
		return
	}

	response, err := e.client.Complete(ctx, completion.Request{
		System:      extractSystemPrompt,
		User:        inquiry.Body,
		Temperature: e.temperature,
	})
	if err != nil {
		e.logger.Error("Extraction call failed",
			zap.Error(err),
			zap.String("inquiry_id", inquiry.InquiryID))
		e.markFailed(ctx, inquiry.InquiryID, err.Error())
		return
	}

	e.logger.Debug("Extraction response received",
		zap.String("inquiry_id", inquiry.InquiryID),
		zap.String("response", response))

	deal, err := parseDeal(response)
	if err != nil {
		e.logger.Error("Failed to parse extraction response",
			zap.Error(err),
			zap.String("inquiry_id", inquiry.InquiryID),
			zap.String("response", response))
		e.markFailed(ctx, inquiry.InquiryID, err.Error())
		return
	}

	e.logger.Info("Deal data extracted",
		zap.String("inquiry_id", inquiry.InquiryID),
		zap.Int("deliverables", len(deal.Campaign.Deliverables)),
		zap.Bool("budget_mentioned", deal.Campaign.Budget.Mentioned),
		zap.String("urgency", deal.Urgency))

	record := e.loadOrStub(ctx, inquiry.InquiryID)
	record["status"] = models.StatusExtracted
	record["extractedData"] = deal
	record["extractedAt"] = time.Now().UTC().Format(time.RFC3339)
	if inquiry.Sender != nil && record["sender"] == nil {
		record["sender"] = inquiry.Sender
	}

	if err := e.store.Set(ctx, storage.CollectionInquiries, inquiry.InquiryID, record); err != nil {
		e.logger.Error("Failed to persist extracted inquiry",
			zap.Error(err),
			zap.String("inquiry_id", inquiry.InquiryID))
		e.markFailed(ctx, inquiry.InquiryID, fmt.Sprintf("persist extracted data: %v", err))
		return
	}

	threadKey := inquiry.ThreadKey
	if threadKey == "" {
		threadKey, _ = record["threadKey"].(string)
	}
	sender := inquiry.Sender
	if sender == nil {
		sender = senderFromRecord(record)
	}

	e.emitter.Emit(ctx, bus.TopicInquiryExtracted, models.ExtractedInquiry{
		InquiryID: inquiry.InquiryID,
		Source:    inquiry.Source,
		ThreadKey: threadKey,
		Extracted: deal,
		Sender:    sender,
	})

	e.logger.Info("Extraction event emitted",
		zap.String("inquiry_id", inquiry.InquiryID))
}

// parseDeal decodes the model output into the deal schema.
func parseDeal(text string) (models.ExtractedDeal, error) {
	var deal models.ExtractedDeal
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &deal); err != nil {
		return models.ExtractedDeal{}, fmt.Errorf("JSON parse error: %w", err)
	}
	return deal, nil
}

// markFailed is the shared failure path: load-or-create the inquiry record and
// move it to extraction_failed with the error message. Safe to call more than
// once for the same inquiry.
func (e *Extractor) markFailed(ctx context.Context, inquiryID, errMsg string) {
	record := e.loadOrStub(ctx, inquiryID)
	record["status"] = models.StatusExtractionFailed
	record["error"] = errMsg

	if err := e.store.Set(ctx, storage.CollectionInquiries, inquiryID, record); err != nil {
		e.logger.Error("Failed to mark inquiry as failed",
			zap.Error(err),
			zap.String("inquiry_id", inquiryID))
	}
}

// loadOrStub fetches the stored inquiry record, falling back to a minimal stub
// when the upstream step has not persisted one. The record stays a schemaless
// map so fields written by other steps survive this read-modify-write.
func (e *Extractor) loadOrStub(ctx context.Context, inquiryID string) map[string]any {
	record, err := e.store.Get(ctx, storage.CollectionInquiries, inquiryID)
	if err != nil {
		e.logger.Error("Failed to load inquiry record",
			zap.Error(err),
			zap.String("inquiry_id", inquiryID))
	}
	if record == nil {
		e.logger.Error("Inquiry not found in state",
			zap.String("inquiry_id", inquiryID))
		record = map[string]any{"id": inquiryID}
	}
	return record
}

func senderFromRecord(record map[string]any) *models.Sender {
	raw, ok := record["sender"].(map[string]any)
	if !ok {
		return nil
	}
	sender := &models.Sender{}
	sender.Name, _ = raw["name"].(string)
	sender.Platform, _ = raw["platform"].(string)
	sender.ID, _ = raw["id"].(string)
	return sender
}
