package enrich

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TextGenerator is the transport behind the enricher: one prompt in, the
// model's raw text out. The Gemini implementation below is the production
// one; tests substitute fakes.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator calls the Gemini API with a fixed model configured for
// JSON output.
type GeminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiGenerator builds the production text generator. Temperature is
// kept low — the prompt asks for structured analysis, not creativity.
func NewGeminiGenerator(ctx context.Context, apiKey, modelName string, temperature float32) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.ResponseMIMEType = "application/json"

	return &GeminiGenerator{client: client, model: model}, nil
}

// Generate sends the prompt and concatenates the text parts of the first
// candidate. An empty reply is returned as "" with a nil error; the
// enricher treats that as a soft miss.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	return text, nil
}

// Close releases the underlying API client.
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

// failureKind buckets a transport error for the retry state machine.
// Quota exhaustion and transient unavailability have separate retry
// budgets; everything else is fatal for the call.
type failureKind int

const (
	failureFatal failureKind = iota
	failureQuota
	failureTransient
)

// classifyError maps a transport error onto its retry bucket. The Gemini
// client surfaces REST errors as *googleapi.Error and gRPC errors as
// status errors; both are checked, plus plain network timeouts.
func classifyError(err error) failureKind {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429:
			return failureQuota
		case 500, 502, 503, 504:
			return failureTransient
		}
		return failureFatal
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.ResourceExhausted:
			return failureQuota
		case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.Internal:
			return failureTransient
		}
		return failureFatal
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return failureTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failureTransient
	}

	return failureFatal
}
