package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/pantrychef/recipegen/internal/httpclient"
)

// YOLOProvider posts photos to a YOLO inference server.
type YOLOProvider struct {
	endpoint string
	client   *http.Client
}

// NewYOLOProvider creates a detector for the inference server at endpoint.
func NewYOLOProvider(endpoint string) *YOLOProvider {
	return &YOLOProvider{endpoint: endpoint, client: httpclient.InstrumentedClient}
}

// Detect uploads the image as the multipart field "file". The server answers
// with a list of detections, bare or wrapped in {"detections": [...]}.
func (p *YOLOProvider) Detect(ctx context.Context, image []byte, mimeType string) ([]Detection, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="upload"`)
	header.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(image); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(httpclient.WithProvider(ctx, "YOLO"), http.MethodPost, p.endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("YOLO server error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return decodeYOLO(respBody)
}

// yoloDetection mirrors Detection with an optional class id, since 0 is a
// valid COCO class.
type yoloDetection struct {
	ClassID    *int        `json:"class_id"`
	ClassName  string      `json:"class_name"`
	Confidence float64     `json:"confidence"`
	BBox       BoundingBox `json:"bbox"`
}

func decodeYOLO(body []byte) ([]Detection, error) {
	var list []yoloDetection
	if err := json.Unmarshal(body, &list); err == nil {
		return resolveIDs(list), nil
	}

	var wrapped struct {
		Detections []yoloDetection `json:"detections"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode YOLO response: %w", err)
	}
	return resolveIDs(wrapped.Detections), nil
}

// resolveIDs fills class ids the server left out from the label, falling
// back to UnknownClassID.
func resolveIDs(raw []yoloDetection) []Detection {
	detections := make([]Detection, 0, len(raw))
	for _, r := range raw {
		d := Detection{ClassName: r.ClassName, Confidence: r.Confidence, BBox: r.BBox}
		if r.ClassID != nil {
			d.ClassID = *r.ClassID
		} else {
			d.ClassID = ClassID(r.ClassName)
		}
		detections = append(detections, d)
	}
	return detections
}
