package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/pdf-ocr/internal/gcs"
	"github.com/dvloznov/pdf-ocr/internal/logger"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

const geminiPrompt = "You are an OCR engine for scanned PDF documents.\n\n" +
	"Task:\n" +
	"- Transcribe the full text of EVERY page of the attached PDF, in reading order.\n" +
	"- Keep the original language and script; do not translate or summarize.\n" +
	"- Output STRICT JSON only: an array with one object per page.\n" +
	"- Each object has \"page\" (1-based page number) and \"text\" (the page text).\n" +
	"- Use an empty string for pages that contain no text.\n"

// GeminiAnnotator transcribes documents with Gemini on Vertex AI and writes the
// result objects itself, in the same layout Cloud Vision uses.
type GeminiAnnotator struct {
	client *genai.Client
	store  gcs.StorageService
	model  string
}

// NewGeminiAnnotator creates a Vertex AI backed Gemini client.
func NewGeminiAnnotator(ctx context.Context, projectID, location, model string, store gcs.StorageService) (*GeminiAnnotator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiAnnotator{client: client, store: store, model: model}, nil
}

// Submit returns an operation that performs the transcription when waited on.
func (a *GeminiAnnotator) Submit(ctx context.Context, req Request) (Operation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	out, err := gcs.ParseURI(req.OutputURI)
	if err != nil {
		return nil, fmt.Errorf("output URI: %w", err)
	}
	return &geminiOperation{
		name:      "gemini/" + uuid.NewString(),
		annotator: a,
		req:       req,
		output:    out,
	}, nil
}

// Close is a no-op; the genai client holds no long-lived connections.
func (a *GeminiAnnotator) Close() error {
	return nil
}

type geminiOperation struct {
	name      string
	annotator *GeminiAnnotator
	req       Request
	output    gcs.URI
}

func (o *geminiOperation) Name() string {
	return o.name
}

func (o *geminiOperation) Wait(ctx context.Context) error {
	log := logger.FromContext(ctx)

	pages, err := o.annotator.transcribe(ctx, o.req)
	if err != nil {
		return err
	}
	log.Debug().Str("operation", o.name).Int("pages", len(pages)).Msg("Gemini transcription received")

	return writeResults(ctx, o.annotator.store, o.output, o.req, pages)
}

// writeResults stores pages as batched result objects under output.
func writeResults(ctx context.Context, store gcs.StorageService, output gcs.URI, req Request, pages []Page) error {
	for _, resp := range BuildResponses(req.InputURI, pages, req.BatchSize) {
		data, err := EncodeResponse(resp)
		if err != nil {
			return err
		}
		responses := resp.GetResponses()
		first := int(responses[0].GetContext().GetPageNumber())
		last := int(responses[len(responses)-1].GetContext().GetPageNumber())
		name := ResultObjectName(output.Object, first, last)

		if err := store.WriteObject(ctx, output.Bucket, name, data, ResultContentType); err != nil {
			return fmt.Errorf("write result object %s: %w", name, err)
		}
	}
	return nil
}

func (a *GeminiAnnotator) transcribe(ctx context.Context, req Request) ([]Page, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(geminiPrompt),
			genai.NewPartFromURI(req.InputURI, req.MIMEType),
		}, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
		ResponseSchema: &genai.Schema{
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"page": {Type: genai.TypeInteger},
					"text": {Type: genai.TypeString},
				},
				Required: []string{"page", "text"},
			},
		},
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("empty response from model %s", a.model)
	}

	return parseGeminiPages(rawText)
}

type geminiPage struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// parseGeminiPages decodes the model's page array and orders it by page number.
// Entries without a page number are numbered after the highest number seen so far.
func parseGeminiPages(raw string) ([]Page, error) {
	var parsed []geminiPage
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal model JSON: %w", err)
	}

	pages := make([]Page, 0, len(parsed))
	highest := 0
	for _, p := range parsed {
		n := p.Page
		if n <= 0 {
			n = highest + 1
		}
		if n > highest {
			highest = n
		}
		pages = append(pages, Page{Number: n, Text: p.Text})
	}

	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages, nil
}

// cleanModelJSON strips Markdown fences or chatter around the JSON array.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
