// Package detector is the HTTP client for the external face landmark
// service. The service accepts an image upload and answers with detected
// faces as named key points, an optional dense mesh and a bounding box,
// which this package converts into landmark sets. The matching engine
// never requires this client; it exists so enrollment and check-in can
// accept raw photos instead of landmark JSON.
package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vbartonek/face-attendance/internal/landmark"
)

// DefaultMaxImageDim bounds the longer image edge before upload. Detector
// models run at a fixed input resolution, so larger uploads only cost
// transfer time.
const DefaultMaxImageDim = 1920

// DefaultTimeout applies when the config carries no timeout.
const DefaultTimeout = 15 * time.Second

// ErrNoFaceDetected is returned when the service processed the image but
// found no face in it.
var ErrNoFaceDetected = errors.New("no face detected")

// Config holds the detector client settings.
type Config struct {
	URL         string        // base URL of the detector service
	Timeout     time.Duration // per-request timeout, 0 = DefaultTimeout
	MaxImageDim int           // longer-edge bound before upload, 0 = DefaultMaxImageDim
}

// Detection is one face found in an image.
type Detection struct {
	Set   landmark.Set
	Score float64 // detector confidence that this is a face
}

// Client calls the landmark detector service.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	maxDim  int
	log     *logrus.Logger
}

// New creates a client for the detector service at cfg.URL.
func New(cfg Config, log *logrus.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("detector URL is empty")
	}
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid detector URL: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxDim := cfg.MaxImageDim
	if maxDim <= 0 {
		maxDim = DefaultMaxImageDim
	}

	return &Client{
		baseURL: parsed,
		http:    &http.Client{Timeout: timeout},
		maxDim:  maxDim,
		log:     log,
	}, nil
}

// Detect posts the image to the service and returns every detected face
// in the order the service reports them. Coordinates are mapped back to
// the pixel space of the supplied image even when the upload was
// downscaled. Returns ErrNoFaceDetected when the service finds no face.
func (c *Client) Detect(ctx context.Context, imageData []byte) ([]Detection, error) {
	upload, scale, err := prepareImage(imageData, c.maxDim)
	if err != nil {
		return nil, err
	}
	if scale != 1 {
		c.log.WithField("scale", scale).Debug("downscaled image before detection")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("could not create form file: %w", err)
	}
	if _, err := part.Write(upload); err != nil {
		return nil, fmt.Errorf("could not write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("could not close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.JoinPath("v1", "faces").String(), &body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detection failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var result detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}

	if len(result.Faces) == 0 {
		return nil, ErrNoFaceDetected
	}

	detections := make([]Detection, 0, len(result.Faces))
	for _, face := range result.Faces {
		detections = append(detections, Detection{
			Set:   face.toSet(result.Model, scale),
			Score: face.Score,
		})
	}

	return detections, nil
}

// DetectBest returns the landmark set of the highest-scoring face in the
// image. Enrollment and check-in work on one face per photo.
func (c *Client) DetectBest(ctx context.Context, imageData []byte) (landmark.Set, error) {
	detections, err := c.Detect(ctx, imageData)
	if err != nil {
		return landmark.Set{}, err
	}

	best := detections[0]
	for _, d := range detections[1:] {
		if d.Score > best.Score {
			best = d
		}
	}
	return best.Set, nil
}

// Health checks the service's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.JoinPath("healthz").String(), nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("detector unhealthy with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}
	return nil
}

// Wire shapes of the detector service's JSON contract.
type detectResponse struct {
	Model string    `json:"model"`
	Faces []faceDTO `json:"faces"`
}

type faceDTO struct {
	Box       boxDTO       `json:"bbox"`
	Score     float64      `json:"score"`
	Quality   float64      `json:"quality"`
	KeyPoints []pointDTO   `json:"key_points"`
	Mesh      [][3]float64 `json:"mesh,omitempty"`
}

type boxDTO struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type pointDTO struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
}

// toSet converts a wire face into a landmark set. scale maps sent-image
// pixels back to the original image's pixel space.
func (f faceDTO) toSet(model string, scale float64) landmark.Set {
	set := landmark.Set{
		SourceTag: model,
		Quality:   f.Quality,
		Box: landmark.Box{
			MinX: f.Box.X * scale,
			MinY: f.Box.Y * scale,
			MaxX: (f.Box.X + f.Box.Width) * scale,
			MaxY: (f.Box.Y + f.Box.Height) * scale,
		},
	}

	for _, p := range f.KeyPoints {
		set.KeyPoints = append(set.KeyPoints, landmark.Point{
			Name: canonicalName(p.Name),
			X:    p.X * scale,
			Y:    p.Y * scale,
			Z:    p.Z * scale,
		})
	}
	for _, m := range f.Mesh {
		set.MeshPoints = append(set.MeshPoints, landmark.Point{
			X: m[0] * scale,
			Y: m[1] * scale,
			Z: m[2] * scale,
		})
	}

	return set
}

// canonicalName maps the service's snake_case point names onto the
// canonical upper-case names. Unknown names pass through upper-cased; the
// scorer pairs points by name, so extras are simply never matched.
func canonicalName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// readErrorBody drains the response body for error reporting.
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(r)
	if err != nil {
		return "(could not read error body)"
	}
	return string(body)
}
