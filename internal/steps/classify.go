// Package steps implements the event-driven steps of the inquiry-processing
// pipeline. Each step consumes one topic, makes a single completion call, and
// emits a follow-on event; there are no retries and no shared state between
// invocations.
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
)

const classifySystemPrompt = `You are a message classifier for a Creator Operating System in India.

Your task: Determine if a message is a BRAND COLLABORATION INQUIRY.

A brand collaboration inquiry is when:
- A brand/company wants to work with a content creator/influencer
- Mentions collaboration, partnership, sponsorship, brand deal
- Asks for content creation (Instagram Reel, YouTube video, etc.)
- Mentions budget, payment, or compensation
- Product reviews, unboxing, promotional content requests

NOT a brand inquiry if:
- General greetings, casual conversation
- Fan messages, appreciation
- Personal messages
- Spam, promotional messages from individuals
- Technical support requests
- Job applications (unless for creator role)

Return ONLY valid JSON:
{
  "isBrandInquiry": true or false,
  "confidence": 0.0 to 1.0,
  "reasoning": "Brief explanation of your decision",
  "keywords": ["list", "of", "relevant", "keywords", "found"]
}

CRITICAL: Return ONLY the JSON object. No markdown, no explanations.`

const defaultReasoning = "No reasoning provided"

// Classifier is the ClassifyMessage step: message.enriched in,
// message.classified out. It always emits exactly one event per input, falling
// back to a negative default when the completion call or parsing fails. The
// only exception is a missing body, which is a silent no-op.
type Classifier struct {
	client      completion.Client
	emitter     bus.Emitter
	temperature float32
	logger      *zap.Logger
}

func NewClassifier(client completion.Client, emitter bus.Emitter, temperature float32, logger *zap.Logger) *Classifier {
	return &Classifier{
		client:      client,
		emitter:     emitter,
		temperature: temperature,
		logger:      logger,
	}
}

func (c *Classifier) Handle(ctx context.Context, msg models.EnrichedMessage) {
	c.logger.Info("Classifying message",
		zap.String("message_id", msg.MessageID),
		zap.String("source", msg.Source),
		zap.String("subject", msg.Subject))

	if msg.Body == "" {
		c.logger.Warn("No message body, skipping classification",
			zap.String("message_id", msg.MessageID))
		return
	}

	response, err := c.client.Complete(ctx, completion.Request{
		System:      classifySystemPrompt,
		User:        classifyUserText(msg),
		Temperature: c.temperature,
	})
	if err != nil {
		c.logger.Error("Classification call failed",
			zap.Error(err),
			zap.String("message_id", msg.MessageID))
		c.emitClassified(ctx, msg, models.Classification{
			Reasoning: fmt.Sprintf("Classification error: %v", err),
			Keywords:  []string{},
		})
		return
	}

	classification, err := parseClassification(response)
	if err != nil {
		c.logger.Error("Failed to parse classification response",
			zap.Error(err),
			zap.String("message_id", msg.MessageID),
			zap.String("response", response))
		c.emitClassified(ctx, msg, models.Classification{
			Reasoning: fmt.Sprintf("Classification failed: %v", err),
			Keywords:  []string{},
		})
		return
	}

	c.logger.Info("Message classified",
		zap.String("message_id", msg.MessageID),
		zap.Bool("is_brand_inquiry", classification.IsBrandInquiry),
		zap.Float64("confidence", classification.Confidence),
		zap.Strings("keywords", classification.Keywords))

	c.emitClassified(ctx, msg, classification)
}

// classifyUserText folds the optional sender name and subject into the body,
// giving the model conversational context for emails.
func classifyUserText(msg models.EnrichedMessage) string {
	var b strings.Builder
	if msg.Sender != nil && msg.Sender.Name != "" {
		fmt.Fprintf(&b, "Sender Name: %s\n", msg.Sender.Name)
	}
	if msg.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n\n", msg.Subject)
	}
	b.WriteString(msg.Body)
	return b.String()
}

// parseClassification decodes the model output, applying the documented
// defaults for fields the model omitted.
func parseClassification(text string) (models.Classification, error) {
	var classification models.Classification
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &classification); err != nil {
		return models.Classification{}, fmt.Errorf("JSON parse error: %w", err)
	}
	if classification.Reasoning == "" {
		classification.Reasoning = defaultReasoning
	}
	if classification.Keywords == nil {
		classification.Keywords = []string{}
	}
	return classification, nil
}

func (c *Classifier) emitClassified(ctx context.Context, msg models.EnrichedMessage, classification models.Classification) {
	classified := models.ClassifiedMessage{
		MessageID:      msg.MessageID,
		Source:         msg.Source,
		Body:           msg.Body,
		Subject:        msg.Subject,
		SenderID:       msg.SenderID,
		Sender:         msg.Sender,
		PageName:       msg.PageName,
		IsBrandInquiry: classification.IsBrandInquiry,
		Confidence:     classification.Confidence,
		Reasoning:      classification.Reasoning,
		Keywords:       classification.Keywords,
		ClassifiedAt:   time.Now().UTC(),
	}

	// Threading metadata only travels with email messages.
	if msg.Source == "email" {
		classified.InReplyTo = msg.InReplyTo
		classified.References = msg.References
		classified.EmailHeaders = msg.EmailHeaders
	}

	c.emitter.Emit(ctx, bus.TopicMessageClassified, classified)

	c.logger.Info("Classification event emitted",
		zap.String("message_id", msg.MessageID))
}
