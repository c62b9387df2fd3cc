package ocr

import (
	"context"
	"fmt"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// VisionAnnotator submits jobs to Cloud Vision AsyncBatchAnnotateFiles.
type VisionAnnotator struct {
	client *vision.ImageAnnotatorClient
	parent string
}

// NewVisionAnnotator creates a Vision client billed to projectID. When location is
// set ("us" or "eu") requests are pinned to that region.
func NewVisionAnnotator(ctx context.Context, projectID, location string, opts ...option.ClientOption) (*VisionAnnotator, error) {
	opts = append([]option.ClientOption{option.WithQuotaProject(projectID)}, opts...)
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision client: %w", err)
	}

	a := &VisionAnnotator{client: client}
	if location != "" {
		a.parent = fmt.Sprintf("projects/%s/locations/%s", projectID, location)
	}
	return a, nil
}

// Submit starts one AsyncBatchAnnotateFiles operation for req.
func (a *VisionAnnotator) Submit(ctx context.Context, req Request) (Operation, error) {
	op, err := a.client.AsyncBatchAnnotateFiles(ctx, buildAsyncRequest(req, a.parent))
	if err != nil {
		return nil, fmt.Errorf("async batch annotate files: %w", err)
	}
	return &visionOperation{op: op}, nil
}

// Close closes the Vision client.
func (a *VisionAnnotator) Close() error {
	if a.client != nil {
		return a.client.Close()
	}
	return nil
}

func buildAsyncRequest(req Request, parent string) *visionpb.AsyncBatchAnnotateFilesRequest {
	return &visionpb.AsyncBatchAnnotateFilesRequest{
		Parent: parent,
		Requests: []*visionpb.AsyncAnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					GcsSource: &visionpb.GcsSource{Uri: req.InputURI},
					MimeType:  req.MIMEType,
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				OutputConfig: &visionpb.OutputConfig{
					GcsDestination: &visionpb.GcsDestination{Uri: req.OutputURI},
					BatchSize:      int32(req.BatchSize),
				},
			},
		},
	}
}

type visionOperation struct {
	op *vision.AsyncBatchAnnotateFilesOperation
}

func (o *visionOperation) Name() string {
	return o.op.Name()
}

func (o *visionOperation) Wait(ctx context.Context) error {
	if _, err := o.op.Wait(ctx); err != nil {
		return err
	}
	return nil
}
