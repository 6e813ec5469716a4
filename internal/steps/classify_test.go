package steps

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"creatoros/internal/bus"
	"creatoros/internal/models"
)

func enrichedEmail() models.EnrichedMessage {
	return models.EnrichedMessage{
		MessageID: "m1",
		Source:    "email",
		Body:      "Hi, we'd love to collaborate on an Instagram reel. Budget 50000 INR.",
		Subject:   "Collaboration proposal",
		SenderID:  "s1",
		Sender:    &models.Sender{Name: "Priya", Platform: "email", ID: "priya@brand.in"},
	}
}

func TestClassifier_EmitsParsedClassification(t *testing.T) {
	client := &stubClient{response: `{
		"isBrandInquiry": true,
		"confidence": 0.92,
		"reasoning": "Mentions collaboration and budget",
		"keywords": ["collaborate", "budget", "reel"]
	}`}
	emitter := &recordingEmitter{}
	c := NewClassifier(client, emitter, 0.2, zaptest.NewLogger(t))

	c.Handle(context.Background(), enrichedEmail())

	events := emitter.all()
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 event, got %d", len(events))
	}
	if events[0].Topic != bus.TopicMessageClassified {
		t.Errorf("unexpected topic %q", events[0].Topic)
	}

	classified, ok := events[0].Payload.(models.ClassifiedMessage)
	if !ok {
		t.Fatalf("unexpected payload type %T", events[0].Payload)
	}
	if !classified.IsBrandInquiry {
		t.Error("expected isBrandInquiry true")
	}
	if classified.Confidence != 0.92 {
		t.Errorf("confidence = %v, want 0.92", classified.Confidence)
	}
	if classified.Reasoning != "Mentions collaboration and budget" {
		t.Errorf("unexpected reasoning %q", classified.Reasoning)
	}
	if len(classified.Keywords) != 3 {
		t.Errorf("keywords = %v", classified.Keywords)
	}
	if classified.MessageID != "m1" || classified.Source != "email" ||
		classified.Subject != "Collaboration proposal" || classified.SenderID != "s1" {
		t.Errorf("passthrough fields lost: %+v", classified)
	}
	if classified.Sender == nil || classified.Sender.Name != "Priya" {
		t.Errorf("sender not forwarded: %+v", classified.Sender)
	}
	if classified.ClassifiedAt.IsZero() {
		t.Error("classifiedAt not set")
	}
}

func TestClassifier_PromptIncludesSenderAndSubject(t *testing.T) {
	client := &stubClient{response: `{"isBrandInquiry": false}`}
	c := NewClassifier(client, &recordingEmitter{}, 0.2, zaptest.NewLogger(t))

	c.Handle(context.Background(), enrichedEmail())

	user := client.last().User
	if !strings.HasPrefix(user, "Sender Name: Priya\n") {
		t.Errorf("sender name not prepended: %q", user)
	}
	if !strings.Contains(user, "Subject: Collaboration proposal\n\n") {
		t.Errorf("subject not included: %q", user)
	}
	if !strings.HasSuffix(user, "Budget 50000 INR.") {
		t.Errorf("body not included: %q", user)
	}
	if client.last().Temperature != 0.2 {
		t.Errorf("temperature = %v, want 0.2", client.last().Temperature)
	}
}

func TestClassifier_DefaultsOnClientError(t *testing.T) {
	client := &stubClient{err: errors.New("connection refused")}
	emitter := &recordingEmitter{}
	c := NewClassifier(client, emitter, 0.2, zaptest.NewLogger(t))

	c.Handle(context.Background(), enrichedEmail())

	events := emitter.all()
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 event, got %d", len(events))
	}
	classified := events[0].Payload.(models.ClassifiedMessage)
	if classified.IsBrandInquiry {
		t.Error("expected negative default on error")
	}
	if classified.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", classified.Confidence)
	}
	if classified.Reasoning == "" || !strings.Contains(classified.Reasoning, "connection refused") {
		t.Errorf("reasoning should describe the failure: %q", classified.Reasoning)
	}
	if classified.Keywords == nil || len(classified.Keywords) != 0 {
		t.Errorf("keywords = %v, want empty", classified.Keywords)
	}
}

func TestClassifier_DefaultsOnMalformedResponse(t *testing.T) {
	client := &stubClient{response: "definitely not json"}
	emitter := &recordingEmitter{}
	c := NewClassifier(client, emitter, 0.2, zaptest.NewLogger(t))

	c.Handle(context.Background(), enrichedEmail())

	events := emitter.all()
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 event, got %d", len(events))
	}
	classified := events[0].Payload.(models.ClassifiedMessage)
	if classified.IsBrandInquiry || classified.Confidence != 0 {
		t.Errorf("expected negative default, got %+v", classified)
	}
	if classified.Reasoning == "" {
		t.Error("reasoning should be non-empty on parse failure")
	}
}

func TestClassifier_MissingBodyEmitsNothing(t *testing.T) {
	client := &stubClient{response: `{"isBrandInquiry": true}`}
	emitter := &recordingEmitter{}
	c := NewClassifier(client, emitter, 0.2, zaptest.NewLogger(t))

	msg := enrichedEmail()
	msg.Body = ""
	c.Handle(context.Background(), msg)

	if events := emitter.all(); len(events) != 0 {
		t.Errorf("expected no events for missing body, got %d", len(events))
	}
}

func TestClassifier_ReasoningDefaultWhenOmitted(t *testing.T) {
	client := &stubClient{response: `{"isBrandInquiry": true, "confidence": 0.8}`}
	emitter := &recordingEmitter{}
	c := NewClassifier(client, emitter, 0.2, zaptest.NewLogger(t))

	c.Handle(context.Background(), enrichedEmail())

	classified := emitter.all()[0].Payload.(models.ClassifiedMessage)
	if classified.Reasoning != defaultReasoning {
		t.Errorf("reasoning = %q, want default", classified.Reasoning)
	}
	if classified.Keywords == nil {
		t.Error("keywords should default to empty slice")
	}
}

func TestClassifier_EmailThreadingForwarded(t *testing.T) {
	client := &stubClient{response: `{"isBrandInquiry": true}`}
	emitter := &recordingEmitter{}
	c := NewClassifier(client, emitter, 0.2, zaptest.NewLogger(t))

	msg := enrichedEmail()
	msg.InReplyTo = "<msg1>"
	msg.References = []string{"<msg0>", "<msg1>"}
	msg.EmailHeaders = map[string]string{"Message-ID": "<msg2>"}
	c.Handle(context.Background(), msg)

	classified := emitter.all()[0].Payload.(models.ClassifiedMessage)
	if classified.InReplyTo != "<msg1>" {
		t.Errorf("inReplyTo = %q, want <msg1>", classified.InReplyTo)
	}
	if len(classified.References) != 2 {
		t.Errorf("references = %v", classified.References)
	}
	if classified.EmailHeaders["Message-ID"] != "<msg2>" {
		t.Errorf("emailHeaders = %v", classified.EmailHeaders)
	}
}

func TestClassifier_ThreadingStrippedForNonEmail(t *testing.T) {
	client := &stubClient{response: `{"isBrandInquiry": true}`}
	emitter := &recordingEmitter{}
	c := NewClassifier(client, emitter, 0.2, zaptest.NewLogger(t))

	msg := enrichedEmail()
	msg.Source = "facebook"
	msg.PageName = "Creator Page"
	msg.InReplyTo = "<msg1>"
	msg.EmailHeaders = map[string]string{"Message-ID": "<msg2>"}
	c.Handle(context.Background(), msg)

	classified := emitter.all()[0].Payload.(models.ClassifiedMessage)
	if classified.InReplyTo != "" || classified.EmailHeaders != nil || classified.References != nil {
		t.Errorf("threading metadata must not leak for facebook: %+v", classified)
	}
	if classified.PageName != "Creator Page" {
		t.Errorf("pageName not forwarded: %q", classified.PageName)
	}
}
