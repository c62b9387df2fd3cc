package ocr

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// ResultContentType is the content type of result objects.
const ResultContentType = "application/json"

var pageRangePattern = regexp.MustCompile(`(\d+)-to-(\d+)\.json$`)

// Page is the extracted text of one source page.
type Page struct {
	Number int
	Text   string
}

// ResultObject is a result object name with the page range embedded in it, if any.
type ResultObject struct {
	Name      string
	FirstPage int
	LastPage  int
	Ranged    bool
}

// IsPlaceholder reports whether name is a directory placeholder with no content.
func IsPlaceholder(name string) bool {
	return strings.HasSuffix(name, "/")
}

// ResultObjectName is the name the service gives a batch: <prefix>output-<first>-to-<last>.json.
func ResultObjectName(prefix string, first, last int) string {
	return fmt.Sprintf("%soutput-%d-to-%d.json", prefix, first, last)
}

// ParseResultObject reads the page range out of a result object name.
func ParseResultObject(name string) ResultObject {
	obj := ResultObject{Name: name}
	m := pageRangePattern.FindStringSubmatch(name)
	if m == nil {
		return obj
	}
	first, err1 := strconv.Atoi(m[1])
	last, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return obj
	}
	obj.FirstPage, obj.LastPage, obj.Ranged = first, last, true
	return obj
}

// OrderResultObjects drops placeholders and orders the rest by first page.
// Objects without a page range keep their listing order and follow the ranged ones.
func OrderResultObjects(names []string) []ResultObject {
	objects := make([]ResultObject, 0, len(names))
	for _, name := range names {
		if IsPlaceholder(name) {
			continue
		}
		objects = append(objects, ParseResultObject(name))
	}

	sort.SliceStable(objects, func(i, j int) bool {
		a, b := objects[i], objects[j]
		if a.Ranged != b.Ranged {
			return a.Ranged
		}
		if !a.Ranged {
			return false
		}
		return a.FirstPage < b.FirstPage
	})

	return objects
}

// DecodeResponse decodes one result object. Unknown fields are ignored.
func DecodeResponse(data []byte) (*visionpb.AnnotateFileResponse, error) {
	var resp visionpb.AnnotateFileResponse
	opts := protojson.UnmarshalOptions{DiscardUnknown: true}
	if err := opts.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode annotate file response: %w", err)
	}
	return &resp, nil
}

// EncodeResponse renders resp in the same JSON form the service writes.
func EncodeResponse(resp *visionpb.AnnotateFileResponse) ([]byte, error) {
	data, err := protojson.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode annotate file response: %w", err)
	}
	return data, nil
}

// PageTexts returns, in response order, the pages that carry a full text annotation.
// Pages without one (blank or failed pages) are left out.
func PageTexts(resp *visionpb.AnnotateFileResponse) []Page {
	var pages []Page
	for _, r := range resp.GetResponses() {
		ann := r.GetFullTextAnnotation()
		if ann == nil || proto.Size(ann) == 0 {
			continue
		}
		pages = append(pages, Page{
			Number: int(r.GetContext().GetPageNumber()),
			Text:   ann.GetText(),
		})
	}
	return pages
}

// BuildResponses groups pages into batches of batchSize, one response per batch,
// shaped like the service output so the same decoder reads both.
func BuildResponses(inputURI string, pages []Page, batchSize int) []*visionpb.AnnotateFileResponse {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var out []*visionpb.AnnotateFileResponse
	for start := 0; start < len(pages); start += batchSize {
		end := start + batchSize
		if end > len(pages) {
			end = len(pages)
		}

		resp := &visionpb.AnnotateFileResponse{
			InputConfig: &visionpb.InputConfig{
				GcsSource: &visionpb.GcsSource{Uri: inputURI},
				MimeType:  MIMETypePDF,
			},
			TotalPages: int32(len(pages)),
		}
		for _, p := range pages[start:end] {
			img := &visionpb.AnnotateImageResponse{
				Context: &visionpb.ImageAnnotationContext{
					Uri:        inputURI,
					PageNumber: int32(p.Number),
				},
			}
			if p.Text != "" {
				img.FullTextAnnotation = &visionpb.TextAnnotation{Text: p.Text}
			}
			resp.Responses = append(resp.Responses, img)
		}
		out = append(out, resp)
	}
	return out
}
